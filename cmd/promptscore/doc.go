// Promptscore evaluates LLM prompt files against a remote evaluation service
// and reports factor scores, findings and, for pull requests, an
// approve/reject verdict.
//
// It runs locally, as a git pre-commit hook, or inside a GitHub Actions
// workflow where it posts a single updatable report comment.
//
// Usage:
//
//	promptscore evaluate                  # evaluate the configured prompt paths
//	promptscore evaluate --staged         # compare staged prompts against HEAD
//	promptscore pr                        # evaluate the prompts changed in a pull request
//	promptscore render response.json      # re-render a saved response
//	promptscore schema response           # print the service contract schema
//	promptscore hook install              # install the pre-commit hook
package main
