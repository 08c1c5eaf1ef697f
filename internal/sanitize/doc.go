// Package sanitize neutralizes markdown-breaking sequences in free text
// before it is embedded into a larger markdown document.
//
// [EscapeFences] is for inline prose, [EscapeTableCell] for table cells and
// [HeaderLine] for single-line headings. All functions are pure.
package sanitize
