package source

import (
	"bytes"
	"strings"
)

// SplitLines splits content into "\n"-delimited lines. A trailing newline
// does not produce an empty final line; empty content has no lines.
func SplitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	text := strings.TrimSuffix(string(content), "\n")
	return strings.Split(text, "\n")
}

// CountLines returns len(SplitLines(content)) without allocating the lines.
func CountLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte{'\n'})
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}
