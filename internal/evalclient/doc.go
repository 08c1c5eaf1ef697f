// Package evalclient delivers evaluation requests to the remote evaluation
// service.
//
// Each call to [Client.Do] runs a small state machine
// (idle, attempting, retrying, succeeded, failed) with a fixed attempt
// budget. Client errors (HTTP 4xx) and unclassified failures are terminal;
// server errors (HTTP 5xx) and transient network failures are retried after
// the delay from the backoff schedule. Every attempt runs under its own
// timeout. Retries are logged at warning level; success and terminal
// failures are not logged.
package evalclient
