// Package github talks to the GitHub REST API for the pr command.
//
// It lists a pull request's changed files, keeps a single report comment up
// to date by searching for a hidden marker, and submits the verdict as a
// pull request review. Authentication uses an oauth2 static token source
// built from GITHUB_TOKEN.
package github
