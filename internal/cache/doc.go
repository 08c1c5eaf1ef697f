// Package cache stores evaluation service responses on disk.
//
// Entries are keyed by a SHA-256 hash of the endpoint and the request body
// with the API key removed, so identical prompt contents in the same mode hit
// the cache. Each entry keeps the raw response JSON, a creation timestamp and
// the TTL in seconds. Expired entries are dropped on read.
//
// The default directory is $XDG_CACHE_HOME/promptscore or the OS equivalent.
// Request bodies have already been through redaction before they are hashed.
package cache
