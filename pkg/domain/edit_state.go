package domain

import "fmt"

// EditState tracks runtime edits applied to a node of a live graph.
// Deletion is soft: a node pending delete stays wired but is always skipped.
type EditState int

const (
	EditStateActive EditState = iota
	EditStateEdited
	EditStatePendingDelete
)

func (s EditState) String() string {
	switch s {
	case EditStateActive:
		return "active"
	case EditStateEdited:
		return "edited"
	case EditStatePendingDelete:
		return "pending_delete"
	default:
		return fmt.Sprintf("EditState(%d)", int(s))
	}
}

// IsEdited reports whether the node was touched by a runtime edit.
func (s EditState) IsEdited() bool {
	return s != EditStateActive
}

func (s EditState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *EditState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "active":
		*s = EditStateActive
	case "edited":
		*s = EditStateEdited
	case "pending_delete":
		*s = EditStatePendingDelete
	default:
		return fmt.Errorf("unknown edit state %q", string(text))
	}
	return nil
}
