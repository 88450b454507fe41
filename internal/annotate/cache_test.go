package annotate

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"
)

func TestSanitizeEventID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{"plain id", "abc-123", "abc-123"},
		{"underscores kept", "abc_123", "abc_123"},
		{"path traversal stripped", "../../etc", "etc"},
		{"slashes and dots stripped", "a/b\\c.d", "abcd"},
		{"spaces stripped", "my event id", "myeventid"},
		{"unicode stripped", "évènt-1", "vnt-1"},
		{"empty", "", ""},
		{"all unsafe", "../..", ""},
	}

	safe := regexp.MustCompile(`^[a-zA-Z0-9_-]*$`)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeEventID(tt.id)
			if got != tt.want {
				t.Errorf("SanitizeEventID(%q) = %q, want %q", tt.id, got, tt.want)
			}
			if !safe.MatchString(got) {
				t.Errorf("SanitizeEventID(%q) = %q contains unsafe characters", tt.id, got)
			}
		})
	}
}

func TestCachePutGet(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	entry := Entry{
		Text: "Coffee with the team, don't forget the agenda.",
		Meta: Meta{
			Title:       "Team coffee",
			Time:        "10:00",
			Description: "weekly sync",
			GeneratedAt: time.Now().UTC(),
		},
	}
	if err := cache.Put("evt-1", entry); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok := cache.Get("evt-1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Text != entry.Text {
		t.Errorf("Text = %q, want %q", got.Text, entry.Text)
	}
	if got.Meta.Title != "Team coffee" {
		t.Errorf("Meta.Title = %q, want Team coffee", got.Meta.Title)
	}
}

func TestCacheMissOnUnknownID(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := cache.Get("never-written"); ok {
		t.Error("expected miss for unknown id")
	}
}

func TestCacheCorruptFileIsAMiss(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCache(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "evt-bad.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := cache.Get("evt-bad"); ok {
		t.Error("expected corrupt file to be treated as a miss")
	}
}

func TestCachePathEscapeImpossible(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCache(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := cache.Put("../../escape", Entry{Text: "x"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// The file must land inside the cache dir, named by the sanitized token.
	if _, err := os.Stat(filepath.Join(dir, "escape.json")); err != nil {
		t.Errorf("expected sanitized file inside cache dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(filepath.Dir(dir)), "escape.json")); err == nil {
		t.Error("cache file escaped the cache directory")
	}
}

func TestCachePutOverwrites(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := cache.Put("evt-1", Entry{Text: "first"}); err != nil {
		t.Fatal(err)
	}
	if err := cache.Put("evt-1", Entry{Text: "second"}); err != nil {
		t.Fatal(err)
	}

	got, ok := cache.Get("evt-1")
	if !ok || got.Text != "second" {
		t.Errorf("Get() = (%+v, %v), want the last write", got, ok)
	}
}

func TestCachePutEmptyToken(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := cache.Put("../..", Entry{Text: "x"}); err == nil {
		t.Error("expected error for an id that sanitizes to nothing")
	}
}
