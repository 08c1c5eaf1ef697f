// Package gitctx reads prompt file versions from a git repository.
//
// It uses go-git directly, so no git binary is required. [Repo.Versions]
// reads the before and after content of a pull request's changes at two
// refs in parallel, [Repo.StagedFiles] and [Repo.StagedVersions] serve the
// pre-commit hook, and [ReadLocal] loads files from disk for on-demand
// evaluation.
//
// [SelectFiles] filters changes by directory prefixes and glob patterns
// from the promptPaths and exclude settings.
package gitctx
