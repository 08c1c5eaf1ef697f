package excerpt

import (
	"regexp"
	"strings"
)

// trailingAnnotationRe matches a trailing parenthetical such as "(strict)".
var trailingAnnotationRe = regexp.MustCompile(`\s*\([^)]+\)\s*$`)

// headerPatterns are checked against the annotation-stripped copy of a line.
var headerPatterns = []*regexp.Regexp{
	// Numbered section with a capitalized title: "1) Overview"
	regexp.MustCompile(`^\d+\)\s+[A-Z]`),
	// Markdown heading around a numbered section: "## 2) Rules"
	regexp.MustCompile(`^#{1,6}\s+\d+\)\s+[A-Z]`),
	// Plain markdown heading: "### Output"
	regexp.MustCompile(`^#{1,6}\s+[A-Z]`),
	// Short capitalized label ending in a colon: "Output:"
	regexp.MustCompile(`^[A-Z][a-zA-Z\s]{1,30}:\s*$`),
}

// IsSectionHeader reports whether line looks like a structural header that
// was captured by accident rather than real prompt or code content.
// Indented lines are never headers.
func IsSectionHeader(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || trimmed != line {
		return false
	}
	if isHorizontalRule(line) {
		return true
	}
	candidate := trailingAnnotationRe.ReplaceAllString(line, "")
	for _, re := range headerPatterns {
		if re.MatchString(candidate) {
			return true
		}
	}
	return false
}

// isHorizontalRule reports whether line is three or more of the same rule
// character ('-', '=' or '*') and nothing else.
func isHorizontalRule(line string) bool {
	if len(line) < 3 {
		return false
	}
	c := line[0]
	if c != '-' && c != '=' && c != '*' {
		return false
	}
	for i := 1; i < len(line); i++ {
		if line[i] != c {
			return false
		}
	}
	return true
}

// Clean removes section-header lines from a code excerpt, keeping blank
// lines and everything else verbatim. Leading and trailing blank lines are
// dropped. If every line was a header the original input is returned, so a
// non-empty excerpt never renders as an empty block.
func Clean(code string) string {
	if code == "" {
		return code
	}

	lines := strings.Split(code, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			kept = append(kept, line)
			continue
		}
		if IsSectionHeader(line) {
			continue
		}
		kept = append(kept, line)
	}

	kept = trimBlankLines(kept)
	if len(kept) == 0 {
		return code
	}
	return strings.Join(kept, "\n")
}

func trimBlankLines(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
