// Package redact removes secrets from prompt file contents before they are
// sent to the evaluation service or written to the response cache.
//
// Detection uses regex heuristics for common secret shapes: private key
// blocks, AWS keys, provider tokens (GitHub, Slack, Anthropic, OpenAI), JWTs,
// bearer tokens, database connection strings and key/secret assignments.
//
// Files whose paths match a configured glob have their whole content replaced
// instead of being scanned.
package redact
