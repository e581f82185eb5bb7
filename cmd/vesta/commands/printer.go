package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// printError writes a red title and an explanation to w, and returns a plain
// error for cobra (which stays silent).
func printError(w io.Writer, title, explanation string) error {
	red.Fprintf(w, "%s\n", title) //nolint:errcheck // terminal output
	if explanation != "" {
		fmt.Fprintf(w, "%s\n", explanation)
	}
	return fmt.Errorf("%s", title)
}

// scoreColour picks green for a match, yellow for a near miss and red
// otherwise.
func scoreColour(score, threshold float64) *color.Color {
	switch {
	case score >= threshold:
		return green
	case score >= threshold-10:
		return yellow
	default:
		return red
	}
}
