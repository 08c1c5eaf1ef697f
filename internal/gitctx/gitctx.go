package gitctx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/promptscore/internal/evaluation"
)

// maxFileBytes is the per-file size limit for prompt files.
const maxFileBytes = 1 << 20 // 1MB

// readConcurrency bounds parallel blob reads.
const readConcurrency = 8

// Change is one changed file as reported by git or the pull request API.
type Change struct {
	Path         string
	PreviousPath string
	Status       evaluation.FileStatus
}

// Repo wraps a go-git repository.
type Repo struct {
	repo *git.Repository
	root string
}

// Open opens the repository containing path, searching parent directories.
func Open(path string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	root := path
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return &Repo{repo: repo, root: root}, nil
}

// Root returns the worktree root directory.
func (r *Repo) Root() string {
	return r.root
}

// HooksDir returns the repository's hooks directory.
func (r *Repo) HooksDir() string {
	if fs, ok := r.repo.Storer.(*filesystem.Storage); ok {
		return filepath.Join(fs.Filesystem().Root(), "hooks")
	}
	return filepath.Join(r.root, ".git", "hooks")
}

// ReadAt returns the content of path at ref. The boolean is false when the
// file does not exist at that revision.
func (r *Repo) ReadAt(ref, path string) (string, bool, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", false, fmt.Errorf("resolving %s: %w", ref, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return "", false, fmt.Errorf("getting commit %s: %w", ref, err)
	}
	f, err := commit.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s at %s: %w", path, ref, err)
	}
	if f.Size > maxFileBytes {
		return "", false, fmt.Errorf("%s at %s exceeds %d bytes", path, ref, maxFileBytes)
	}
	content, err := f.Contents()
	if err != nil {
		return "", false, fmt.Errorf("reading %s at %s: %w", path, ref, err)
	}
	return content, true, nil
}

// Versions reads the before and after content of each change. The after
// side comes from head. The before side comes from base at the previous
// path for renames; added files, and files missing at base, get a nil
// before. Order of the result follows changes.
func (r *Repo) Versions(ctx context.Context, base, head string, changes []Change) ([]evaluation.FileInput, error) {
	out := make([]evaluation.FileInput, len(changes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(readConcurrency)
	for i, ch := range changes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			after, ok, err := r.ReadAt(head, ch.Path)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s not found at %s", ch.Path, head)
			}
			var before *string
			if ch.Status != evaluation.StatusAdded {
				prev := ch.Path
				if ch.PreviousPath != "" {
					prev = ch.PreviousPath
				}
				content, ok, err := r.ReadAt(base, prev)
				if err != nil {
					return err
				}
				if ok {
					before = &content
				}
			}
			out[i] = evaluation.NewFileInput(ch.Path, ch.Status, before, after)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// StagedFiles returns the files staged for commit, sorted by path.
// Deletions are left out.
func (r *Repo) StagedFiles() ([]Change, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("opening worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("reading worktree status: %w", err)
	}
	var changes []Change
	for path, st := range status {
		var fs evaluation.FileStatus
		switch st.Staging {
		case git.Added:
			fs = evaluation.StatusAdded
		case git.Modified:
			fs = evaluation.StatusModified
		case git.Renamed, git.Copied:
			fs = evaluation.StatusRenamed
		default:
			continue
		}
		changes = append(changes, Change{Path: path, PreviousPath: st.Extra, Status: fs})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

// StagedVersions reads each staged change from the index, with the HEAD
// version as the before side. In a repository without commits every
// before is nil.
func (r *Repo) StagedVersions(changes []Change) ([]evaluation.FileInput, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	_, headErr := r.repo.Head()
	hasHead := headErr == nil
	if headErr != nil && !errors.Is(headErr, plumbing.ErrReferenceNotFound) {
		return nil, fmt.Errorf("resolving HEAD: %w", headErr)
	}

	out := make([]evaluation.FileInput, 0, len(changes))
	for _, ch := range changes {
		after, err := r.readIndex(idx, ch.Path)
		if err != nil {
			return nil, err
		}
		var before *string
		if hasHead && ch.Status != evaluation.StatusAdded {
			prev := ch.Path
			if ch.PreviousPath != "" {
				prev = ch.PreviousPath
			}
			content, ok, err := r.ReadAt("HEAD", prev)
			if err != nil {
				return nil, err
			}
			if ok {
				before = &content
			}
		}
		out = append(out, evaluation.NewFileInput(ch.Path, ch.Status, before, after))
	}
	return out, nil
}

func (r *Repo) readIndex(idx *index.Index, path string) (string, error) {
	e, err := idx.Entry(path)
	if err != nil {
		return "", fmt.Errorf("%s not staged: %w", path, err)
	}
	blob, err := r.repo.BlobObject(e.Hash)
	if err != nil {
		return "", fmt.Errorf("reading staged blob for %s: %w", path, err)
	}
	if blob.Size > maxFileBytes {
		return "", fmt.Errorf("%s exceeds %d bytes", path, maxFileBytes)
	}
	rd, err := blob.Reader()
	if err != nil {
		return "", fmt.Errorf("reading staged blob for %s: %w", path, err)
	}
	defer rd.Close()
	data, err := io.ReadAll(rd)
	if err != nil {
		return "", fmt.Errorf("reading staged blob for %s: %w", path, err)
	}
	return string(data), nil
}

// ReadLocal reads files from disk for on-demand evaluation. Every file is
// sent as added with no prior version.
func ReadLocal(paths []string) ([]evaluation.FileInput, error) {
	out := make([]evaluation.FileInput, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if info.Size() > maxFileBytes {
			return nil, fmt.Errorf("%s exceeds %d bytes", p, maxFileBytes)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		out = append(out, evaluation.NewFileInput(filepath.ToSlash(p), evaluation.StatusAdded, nil, string(data)))
	}
	return out, nil
}

// ExpandPaths walks directories in paths and returns the regular files
// that SelectFiles would accept, sorted. Explicit file arguments are kept
// as given.
func ExpandPaths(paths, exclude []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, filepath.ToSlash(p))
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == ".git" {
					return filepath.SkipDir
				}
				return nil
			}
			path = filepath.ToSlash(path)
			if d.Type().IsRegular() && !MatchesAny(path, exclude) {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
	}
	sort.Strings(out)
	return out, nil
}

// SelectFiles keeps the changes under any include entry and not matched by
// any exclude entry. An entry ending in "/" is a directory prefix; anything
// else is a glob as understood by MatchesAny. An empty include list keeps
// everything.
func SelectFiles(changes []Change, include, exclude []string) []Change {
	var out []Change
	for _, ch := range changes {
		if len(include) > 0 && !matchesEntry(ch.Path, include) {
			continue
		}
		if matchesEntry(ch.Path, exclude) {
			continue
		}
		out = append(out, ch)
	}
	return out
}

func matchesEntry(path string, entries []string) bool {
	for _, e := range entries {
		if strings.HasSuffix(e, "/") {
			if strings.HasPrefix(path, strings.TrimPrefix(e, "./")) {
				return true
			}
			continue
		}
		if MatchesAny(path, []string{e}) {
			return true
		}
	}
	return false
}

// MatchesAny returns true if the path matches any of the given glob patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(path, pattern) {
			return true
		}
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}
