package sanitize

import (
	"regexp"
	"strings"
)

var (
	// fenceRunRe matches any run of three or more backticks.
	fenceRunRe = regexp.MustCompile("`{3,}")
	// fencedBlockRe matches a complete fenced block, non-greedy across lines.
	fencedBlockRe = regexp.MustCompile("(?s)`{3,}.*?`{3,}")
	// newlineRunRe matches whitespace that contains at least one line break.
	newlineRunRe = regexp.MustCompile(`[ \t]*[\r\n]+[\s]*`)
	spaceRunRe   = regexp.MustCompile(`[ \t]{2,}`)
)

// EscapeFences neutralizes runs of three or more backticks so they can no
// longer open or close a code fence when embedded in inline markdown. Each
// backtick in such a run is prefixed with a backslash.
func EscapeFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	return fenceRunRe.ReplaceAllStringFunc(s, func(run string) string {
		return strings.Repeat("\\`", len(run))
	})
}

// EscapeTableCell makes s safe to place in a single markdown table cell.
// Pipes are escaped and line breaks collapse to a single space.
func EscapeTableCell(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "|", `\|`)
	return newlineRunRe.ReplaceAllString(s, " ")
}

// HeaderLine reduces free text to a single physical line suitable for a
// markdown heading: fenced blocks are dropped, orphan fence markers are
// removed and line breaks become spaces.
func HeaderLine(s string) string {
	if s == "" {
		return s
	}
	s = fencedBlockRe.ReplaceAllString(s, "")
	s = fenceRunRe.ReplaceAllString(s, "")
	s = newlineRunRe.ReplaceAllString(s, " ")
	s = spaceRunRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// LongestBacktickRun returns the length of the longest run of consecutive
// backticks in s.
func LongestBacktickRun(s string) int {
	longest, current := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == '`' {
			current++
			if current > longest {
				longest = current
			}
			continue
		}
		current = 0
	}
	return longest
}
