// Package format lays out panel content as buffer lines.
package format

import "strings"

// Header is the first line of every rendered panel.
const Header = "-- infopane --"

// BusyLine is appended while the server is still processing the document.
const BusyLine = "⋯ server busy"

// Empty is shown when there is no content for the tracked position.
const Empty = "No info available."

// Render lays out a message as buffer lines: header, content, and a busy
// indicator while the server is working. Output is deterministic for a
// given (msg, busy) pair so line diffing stays stable.
func Render(msg string, busy bool) []string {
	lines := []string{Header}

	if msg == "" {
		lines = append(lines, Empty)
	} else {
		lines = append(lines, strings.Split(msg, "\n")...)
	}

	if busy {
		lines = append(lines, "", BusyLine)
	}

	return lines
}
