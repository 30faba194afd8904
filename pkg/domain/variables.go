package domain

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Multi-instance variables kept on the multi-instance root.
const (
	VarNrOfInstances          = "nrOfInstances"
	VarNrOfActiveInstances    = "nrOfActiveInstances"
	VarNrOfCompletedInstances = "nrOfCompletedInstances"
	VarNrOfCandidateUsers     = "nrOfCandidateUsers"
	VarLoopCounter            = "loopCounter"
	VarCandidateUsersIndex    = "loopCandidateUsersIndex"
	VarCachedCandidates       = "multiinstanceCacheUsers"

	// VarLoopCandidateUser holds the candidate assigned to one instance.
	VarLoopCandidateUser = "loopCandidateUser"
)

// VarSkipExpressionEnabled turns skip expressions on for an execution scope.
const VarSkipExpressionEnabled = "_FLOWABLE_SKIP_EXPRESSION_ENABLED"

// Delete reasons.
const (
	DeleteReasonMultiInstanceEnd = "MI_END"
	DeleteReasonTaskDeleted      = "delete"
	DeleteReasonUpgrade          = "UPGRADE"
	DeleteReasonProcessEnd       = "PROCESS_END"
	DeleteReasonCompleted        = "completed"
)

var candidateSeparator = regexp.MustCompile(`\s*,\s*`)

// ExtractCandidates splits a comma separated candidate string, trimming the
// whitespace around each separator. Empty tokens are dropped.
func ExtractCandidates(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := candidateSeparator.Split(s, -1)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinCandidates serializes candidates the way ExtractCandidates parses them.
func JoinCandidates(candidates []string) string {
	return strings.Join(candidates, ",")
}

// DistinctCandidates removes duplicates, keeping first occurrences in order.
func DistinctCandidates(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// ToInt converts a stored variable to an int. Values that went through a
// JSON round trip come back as float64 or json.Number, counters cached as
// text come back as strings.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int, bool) {
	if f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
