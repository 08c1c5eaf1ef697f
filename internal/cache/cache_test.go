package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/promptscore/internal/evaluation"
)

func TestCache_PutGet(t *testing.T) {
	c, err := New(true, t.TempDir(), 86400)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	key := "test-key"
	value := `{"status":"success","results":[]}`

	if _, ok := c.Get(key); ok {
		t.Error("Expected cache miss before put")
	}
	if err := c.Put(key, []byte(value)); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Expected cache hit after put")
	}
	if string(got) != value {
		t.Errorf("Got = %q, want %q", got, value)
	}
}

func TestCache_PutRejectsInvalidJSON(t *testing.T) {
	c, err := New(true, t.TempDir(), 60)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := c.Put("k", []byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestCache_TTLExpiration(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 60)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Put("expire-test", []byte(`{}`)); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if _, ok := c.Get("expire-test"); !ok {
		t.Error("Expected cache hit before expiration")
	}

	now = now.Add(61 * time.Second)
	if _, ok := c.Get("expire-test"); ok {
		t.Error("Expected cache miss after expiration")
	}
	if _, err := os.Stat(c.entryPath("expire-test")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestCache_Disabled(t *testing.T) {
	c, err := New(false, "", 86400)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if c.Enabled() {
		t.Error("Expected cache to be disabled")
	}
	if err := c.Put("key", []byte(`{}`)); err != nil {
		t.Errorf("Put on disabled cache should be a no-op: %v", err)
	}
	if _, ok := c.Get("key"); ok {
		t.Error("Expected miss on disabled cache")
	}
	if n, err := c.Clear(); err != nil || n != 0 {
		t.Errorf("Clear on disabled cache = %d, %v", n, err)
	}
}

func TestCache_Clear(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 86400)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Put(k, []byte(`{}`)); err != nil {
			t.Fatalf("Put error: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("removed = %d, want 3", n)
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Expected miss after clear")
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("non-cache files should survive clear")
	}
}

func TestCache_GetStats(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 60)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	now := time.Now()
	c.now = func() time.Time { return now }

	if err := c.Put("old", []byte(`{"status":"success"}`)); err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Minute)
	if err := c.Put("new", []byte(`{"status":"success"}`)); err != nil {
		t.Fatal(err)
	}

	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats error: %v", err)
	}
	if stats.Entries != 2 {
		t.Errorf("Entries = %d, want 2", stats.Entries)
	}
	if stats.Expired != 1 {
		t.Errorf("Expired = %d, want 1", stats.Expired)
	}
	if stats.TotalBytes <= 0 {
		t.Error("TotalBytes should be positive")
	}
	if stats.Dir != dir {
		t.Errorf("Dir = %q, want %q", stats.Dir, dir)
	}
}

func TestHashKey(t *testing.T) {
	h1 := HashKey("hello")
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
	if h1 != HashKey("hello") {
		t.Error("same input should produce same hash")
	}
	if h1 == HashKey("world") {
		t.Error("different input should produce different hash")
	}
}

func TestRequestKey(t *testing.T) {
	before := "old"
	req := evaluation.Request{
		APIKey: "key-one",
		Mode:   evaluation.ModePullRequest,
		Files:  []evaluation.FileInput{evaluation.NewFileInput("prompts/a.md", evaluation.StatusModified, &before, "new")},
	}
	k1, err := RequestKey("https://eval.example", req)
	if err != nil {
		t.Fatal(err)
	}

	rotated := req
	rotated.APIKey = "key-two"
	k2, _ := RequestKey("https://eval.example", rotated)
	if k1 != k2 {
		t.Error("API key must not affect the cache key")
	}

	other := req
	other.Mode = evaluation.ModeOnDemand
	k3, _ := RequestKey("https://eval.example", other)
	if k1 == k3 {
		t.Error("mode must affect the cache key")
	}

	k4, _ := RequestKey("https://other.example", req)
	if k1 == k4 {
		t.Error("endpoint must affect the cache key")
	}
	if req.APIKey != "key-one" {
		t.Error("RequestKey must not modify the caller's request")
	}
}
