// Package cli wires together the Cobra command tree for the promptscore
// binary.
//
// It defines the root command and all subcommands (evaluate, pr, render,
// schema, config, cache, hook, version), binds flags, reads configuration,
// runs the evaluation pipeline and returns deterministic exit codes for CI
// gating: 0 success, 1 fail-on threshold met, 2 usage error, 3 auth failure,
// 4 runtime error.
package cli
