package gitctx

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/dshills/promptscore/internal/evaluation"
)

type testRepo struct {
	t    *testing.T
	dir  string
	repo *gogit.Repository
	wt   *gogit.Worktree
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	return &testRepo{t: t, dir: dir, repo: repo, wt: wt}
}

func (r *testRepo) write(rel, content string) {
	r.t.Helper()
	path := filepath.Join(r.dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		r.t.Fatal(err)
	}
	if _, err := r.wt.Add(rel); err != nil {
		r.t.Fatal(err)
	}
}

func (r *testRepo) remove(rel string) {
	r.t.Helper()
	if _, err := r.wt.Remove(rel); err != nil {
		r.t.Fatal(err)
	}
}

func (r *testRepo) commit(msg string) string {
	r.t.Helper()
	h, err := r.wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@test", When: time.Now()},
	})
	if err != nil {
		r.t.Fatal(err)
	}
	return h.String()
}

func TestReadAt(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("prompts/agent.md", "v1")
	base := tr.commit("initial")
	tr.write("prompts/agent.md", "v2")
	head := tr.commit("update")

	r, err := Open(tr.dir)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	for ref, want := range map[string]string{base: "v1", head: "v2", "HEAD": "v2"} {
		got, ok, err := r.ReadAt(ref, "prompts/agent.md")
		if err != nil || !ok {
			t.Fatalf("ReadAt(%s) = %v, %v", ref, ok, err)
		}
		if got != want {
			t.Errorf("ReadAt(%s) = %q, want %q", ref, got, want)
		}
	}

	if _, ok, err := r.ReadAt(head, "prompts/missing.md"); err != nil || ok {
		t.Errorf("missing file: ok=%v err=%v", ok, err)
	}
	if _, _, err := r.ReadAt("no-such-ref", "prompts/agent.md"); err == nil {
		t.Error("expected error for unknown ref")
	}
}

func TestOpen_Subdirectory(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("prompts/agent.md", "v1")
	tr.commit("initial")

	r, err := Open(filepath.Join(tr.dir, "prompts"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if _, ok, err := r.ReadAt("HEAD", "prompts/agent.md"); err != nil || !ok {
		t.Errorf("ReadAt from subdirectory: ok=%v err=%v", ok, err)
	}
}

func TestOpen_NotARepo(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Error("expected error outside a repository")
	}
}

func TestVersions(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("prompts/modified.md", "before")
	tr.write("prompts/old-name.md", "renamed before")
	base := tr.commit("initial")

	tr.write("prompts/modified.md", "after")
	tr.remove("prompts/old-name.md")
	tr.write("prompts/new-name.md", "renamed after")
	tr.write("prompts/added.md", "brand new")
	head := tr.commit("changes")

	r, err := Open(tr.dir)
	if err != nil {
		t.Fatal(err)
	}
	changes := []Change{
		{Path: "prompts/modified.md", Status: evaluation.StatusModified},
		{Path: "prompts/new-name.md", PreviousPath: "prompts/old-name.md", Status: evaluation.StatusRenamed},
		{Path: "prompts/added.md", Status: evaluation.StatusAdded},
	}
	files, err := r.Versions(context.Background(), base, head, changes)
	if err != nil {
		t.Fatalf("Versions error: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d files, want 3", len(files))
	}

	if files[0].After != "after" || files[0].Before == nil || *files[0].Before != "before" {
		t.Errorf("modified = %+v", files[0])
	}
	if files[1].After != "renamed after" || files[1].Before == nil || *files[1].Before != "renamed before" {
		t.Errorf("renamed = %+v", files[1])
	}
	if files[1].Name != "new-name.md" {
		t.Errorf("Name = %q", files[1].Name)
	}
	if files[2].After != "brand new" || files[2].Before != nil {
		t.Errorf("added = %+v", files[2])
	}
}

func TestVersions_MissingAtHead(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("prompts/a.md", "x")
	head := tr.commit("initial")

	r, err := Open(tr.dir)
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Versions(context.Background(), head, head, []Change{{Path: "prompts/gone.md", Status: evaluation.StatusModified}})
	if err == nil {
		t.Error("expected error for file missing at head")
	}
}

func TestVersions_ModifiedMissingAtBase(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("README.md", "readme")
	base := tr.commit("initial")
	tr.write("prompts/a.md", "x")
	head := tr.commit("add")

	r, err := Open(tr.dir)
	if err != nil {
		t.Fatal(err)
	}
	files, err := r.Versions(context.Background(), base, head, []Change{{Path: "prompts/a.md", Status: evaluation.StatusModified}})
	if err != nil {
		t.Fatal(err)
	}
	if files[0].Before != nil {
		t.Error("file absent at base should have nil before")
	}
}

func TestStagedFilesAndVersions(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("prompts/agent.md", "committed")
	tr.write("prompts/untouched.md", "same")
	tr.write("prompts/doomed.md", "bye")
	tr.commit("initial")

	tr.write("prompts/agent.md", "staged edit")
	tr.write("prompts/fresh.md", "new prompt")
	tr.remove("prompts/doomed.md")

	r, err := Open(tr.dir)
	if err != nil {
		t.Fatal(err)
	}
	changes, err := r.StagedFiles()
	if err != nil {
		t.Fatalf("StagedFiles error: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("changes = %+v, want 2 entries", changes)
	}
	if changes[0].Path != "prompts/agent.md" || changes[0].Status != evaluation.StatusModified {
		t.Errorf("changes[0] = %+v", changes[0])
	}
	if changes[1].Path != "prompts/fresh.md" || changes[1].Status != evaluation.StatusAdded {
		t.Errorf("changes[1] = %+v", changes[1])
	}

	files, err := r.StagedVersions(changes)
	if err != nil {
		t.Fatalf("StagedVersions error: %v", err)
	}
	if files[0].After != "staged edit" || files[0].Before == nil || *files[0].Before != "committed" {
		t.Errorf("files[0] = %+v", files[0])
	}
	if files[1].After != "new prompt" || files[1].Before != nil {
		t.Errorf("files[1] = %+v", files[1])
	}
}

func TestStagedVersions_NoCommits(t *testing.T) {
	tr := newTestRepo(t)
	tr.write("prompts/first.md", "hello")

	r, err := Open(tr.dir)
	if err != nil {
		t.Fatal(err)
	}
	files, err := r.StagedVersions([]Change{{Path: "prompts/first.md", Status: evaluation.StatusModified}})
	if err != nil {
		t.Fatalf("StagedVersions error: %v", err)
	}
	if files[0].After != "hello" || files[0].Before != nil {
		t.Errorf("files[0] = %+v", files[0])
	}
}

func TestReadLocal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.md")
	if err := os.WriteFile(path, []byte("You are helpful."), 0o644); err != nil {
		t.Fatal(err)
	}
	files, err := ReadLocal([]string{path})
	if err != nil {
		t.Fatalf("ReadLocal error: %v", err)
	}
	f := files[0]
	if f.Status != evaluation.StatusAdded || f.Before != nil || f.After != "You are helpful." || f.Name != "agent.md" {
		t.Errorf("file = %+v", f)
	}

	if _, err := ReadLocal([]string{filepath.Join(dir, "missing.md")}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	for _, rel := range []string{"a.md", "sub/b.md", "sub/skip.tmp"} {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := ExpandPaths([]string{dir}, []string{"**/*.tmp"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.ToSlash(filepath.Join(dir, "a.md")),
		filepath.ToSlash(filepath.Join(dir, "sub", "b.md")),
	}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ExpandPaths = %v, want %v", got, want)
	}
}

func TestSelectFiles(t *testing.T) {
	changes := []Change{
		{Path: "prompts/agent.md"},
		{Path: "prompts/archive/old.md"},
		{Path: "src/main.go"},
		{Path: "agents/system.txt"},
	}
	got := SelectFiles(changes, []string{"prompts/", "**/*.txt"}, []string{"prompts/archive/"})
	var paths []string
	for _, c := range got {
		paths = append(paths, c.Path)
	}
	want := []string{"prompts/agent.md", "agents/system.txt"}
	if len(paths) != len(want) || paths[0] != want[0] || paths[1] != want[1] {
		t.Errorf("SelectFiles = %v, want %v", paths, want)
	}

	if all := SelectFiles(changes, nil, nil); len(all) != len(changes) {
		t.Errorf("empty include should keep everything, got %d", len(all))
	}
}

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"prompts/a.md", []string{"prompts/*.md"}, true},
		{"deep/nested/a.md", []string{"**/*.md"}, true},
		{"vendor/lib/a.md", []string{"vendor/"}, true},
		{"main.go", []string{"*.md"}, false},
		{"main.go", nil, false},
	}
	for _, tt := range tests {
		if got := MatchesAny(tt.path, tt.patterns); got != tt.want {
			t.Errorf("MatchesAny(%q, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
		}
	}
}

func TestHooksDir(t *testing.T) {
	tr := newTestRepo(t)
	r, err := Open(tr.dir)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(tr.dir, ".git", "hooks")
	if got := r.HooksDir(); got != want {
		t.Errorf("HooksDir = %q, want %q", got, want)
	}
}
