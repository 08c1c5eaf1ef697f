package output

import (
	"strings"

	"github.com/dshills/promptscore/internal/sanitize"
)

// Fence returns a backtick fence long enough that nothing in content can
// close it early: max(3, longest backtick run + 1).
func Fence(content string) string {
	return strings.Repeat("`", max(3, sanitize.LongestBacktickRun(content)+1))
}

func writeCodeBlock(b *strings.Builder, content string) {
	content = strings.TrimRight(content, "\n")
	fence := Fence(content)
	b.WriteString(fence)
	b.WriteString("\n")
	b.WriteString(content)
	b.WriteString("\n")
	b.WriteString(fence)
	b.WriteString("\n\n")
}
