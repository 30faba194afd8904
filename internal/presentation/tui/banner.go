package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`   __ _               _        _   _ `, "#818cf8"},
	{`  / _| | _____      _| |_ ___ | |_| |`, "#a78bfa"},
	{` | |_| |/ _ \ \ /\ / / __/ __|| __| |`, "#c084fc"},
	{` |  _| | (_) \ V  V / || (__ | |_| |`, "#e879f9"},
	{` |_| |_|\___/ \_/\_/ \__\___| \__|_|`, "#f472b6"},
}

// PrintBanner writes the ASCII art banner followed by the version and the
// listen address. Colors are dropped when w is not a terminal.
func PrintBanner(w io.Writer, version, addr string) {
	out := termenv.NewOutput(w)
	// Using a subtle gradient-like color scheme (Indigo/Violet)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, out.String(fmt.Sprintf("  version %s, listening on %s", version, addr)).Faint())
	fmt.Fprintln(w)
}
