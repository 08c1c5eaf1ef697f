// Package actions writes GitHub Actions step outputs and the job summary.
package actions
