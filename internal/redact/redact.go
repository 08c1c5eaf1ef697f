package redact

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dshills/promptscore/internal/evaluation"
)

// Placeholder replaces every detected secret.
const Placeholder = "[REDACTED]"

// PathNotice is the full content sent for files matched by a path policy.
const PathNotice = Placeholder + " (file content redacted by path policy)\n"

type rule struct {
	kind string
	re   *regexp.Regexp
}

// Order matters: provider-specific shapes run before the generic ones so
// the kind counts stay meaningful.
var rules = []rule{
	{"private-key", regexp.MustCompile(`-----BEGIN\s+(?:[A-Z]+\s+)?PRIVATE KEY-----`)},
	{"aws-access-key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"aws-secret-key", regexp.MustCompile(`(?i)aws[_-]?secret[_-]?access[_-]?key\s*[:=]\s*["']?[A-Za-z0-9/+=]{40}["']?`)},
	{"github-token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`)},
	{"slack-token", regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`)},
	{"anthropic-key", regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`)},
	{"openai-key", regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`)},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)},
	{"bearer", regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`)},
	{"connection-string", regexp.MustCompile(`(?i)\b(?:postgres(?:ql)?|mysql|mongodb(?:\+srv)?|redis|amqp)://[^\s:@/]+:[^\s@/]+@[^\s]+`)},
	{"api-key", regexp.MustCompile(`(?i)(?:api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?[A-Za-z0-9/+=_-]{20,}["']?`)},
	{"assignment", regexp.MustCompile(`(?i)(?:secret|token|password|passwd|credential)\s*[:=]\s*["'][^"']{8,}["']`)},
	{"hex-secret", regexp.MustCompile(`(?i)(?:key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`)},
}

// Report counts what was redacted, by kind. Path-policy matches are
// counted under "path".
type Report map[string]int

// Total returns the number of redactions across all kinds.
func (r Report) Total() int {
	n := 0
	for _, v := range r {
		n += v
	}
	return n
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	out, _ := secrets(text, nil)
	return out
}

func secrets(text string, rep Report) (string, Report) {
	for _, r := range rules {
		text = r.re.ReplaceAllStringFunc(text, func(string) string {
			if rep != nil {
				rep[r.kind]++
			}
			return Placeholder
		})
	}
	return text, rep
}

// ShouldRedactPath checks if a file path matches any of the redaction path
// patterns. A leading "**/" matches the base name at any depth.
func ShouldRedactPath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := filepath.Match(pattern, path); err == nil && matched {
			return true
		}
		if clean, ok := strings.CutPrefix(pattern, "**/"); ok {
			if matched, err := filepath.Match(clean, filepath.Base(path)); err == nil && matched {
				return true
			}
		}
	}
	return false
}

// Policy describes what to scrub from outgoing prompt files.
type Policy struct {
	Secrets bool
	Paths   []string
}

// Enabled reports whether the policy would change anything.
func (p Policy) Enabled() bool {
	return p.Secrets || len(p.Paths) > 0
}

// Content applies the policy to one version of a file.
func (p Policy) Content(path, content string, rep Report) string {
	if ShouldRedactPath(path, p.Paths) {
		rep["path"]++
		return PathNotice
	}
	if !p.Secrets {
		return content
	}
	out, _ := secrets(content, rep)
	return out
}

// Files returns copies of files with both versions scrubbed. The input
// slice and its Before pointers are left untouched.
func (p Policy) Files(files []evaluation.FileInput) ([]evaluation.FileInput, Report) {
	rep := Report{}
	out := make([]evaluation.FileInput, len(files))
	for i, f := range files {
		f.After = p.Content(f.Path, f.After, rep)
		if f.Before != nil {
			before := p.Content(f.Path, *f.Before, rep)
			f.Before = &before
		}
		out[i] = f
	}
	return out, rep
}
