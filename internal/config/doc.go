// Package config loads promptscore settings.
//
// The effective configuration is built in layers, each overriding the last:
// [Default], the YAML file (.promptscore.yaml or --config), the environment,
// and finally explicitly set CLI flags. Environment variables are looked up
// with the GitHub Actions INPUT_ prefix first and PROMPTSCORE_ second, so the
// same binary works as an Action and locally.
//
// [GitHubEnv] reads the runner variables used by the pr command.
package config
