// Package output formats prompt evaluation reports for display or machine
// consumption.
//
// Four formats are supported:
//   - text     - terminal score table per file (default)
//   - json     - full structured JSON report
//   - markdown - PR-comment report with an evaluation table, verdict and
//     collapsible findings per factor
//   - sarif    - SARIF v2.1.0 for upload to GitHub code scanning
//
// The markdown format is produced by [Renderer], a pure transformation that
// escapes untrusted text, sizes code fences to their content and truncates
// the assembled document to a fixed ceiling. Use [GetWriter] to obtain a
// [Writer] for a format string, or [WriteReport] to select the destination.
package output
