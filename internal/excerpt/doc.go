// Package excerpt cleans code excerpts quoted in findings. Evaluators
// sometimes capture a neighbouring section header with the snippet, and
// those lines are stripped before the excerpt is rendered.
package excerpt
