package wmibo

import "strings"

// tokenize splits a raw line into whitespace-separated tokens.
// Blank lines and comment lines (first token "c" or starting with '#') yield no token.
// A token starting with '#' ends the line.
func tokenize(line string) []string {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] == "c" {
		return nil
	}
	for i, f := range fields {
		if f[0] == '#' {
			return fields[:i]
		}
	}
	return fields
}
