package annotate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// Entry is the persisted annotation for one event. Entries are written
// once and never expired; subsequent requests for the same event read
// the stored text instead of regenerating it.
type Entry struct {
	Text string `json:"text"`
	Meta Meta   `json:"meta"`
}

// Meta records the inputs the annotation was generated from.
type Meta struct {
	Title       string    `json:"title"`
	Time        string    `json:"time"`
	Description string    `json:"description"`
	GeneratedAt time.Time `json:"generatedAt"`
}

var unsafeIDChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeEventID reduces an event identifier to a filesystem-safe token,
// retaining only alphanumerics, underscore and hyphen. This makes path
// escape via crafted identifiers impossible.
func SanitizeEventID(id string) string {
	return unsafeIDChars.ReplaceAllString(id, "")
}

// Cache persists annotation entries as one JSON file per sanitized event
// identifier. Concurrent writes for the same identifier are not
// coordinated; the duplicate write is benign and last write wins.
type Cache struct {
	dir string
}

// NewCache creates the cache directory if needed and returns the cache.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Get returns the stored entry for an event identifier. A missing,
// unreadable or unparseable file is reported as a miss so the caller
// regenerates the annotation.
func (c *Cache) Get(eventID string) (*Entry, bool) {
	token := SanitizeEventID(eventID)
	if token == "" {
		return nil, false
	}

	data, err := os.ReadFile(c.path(token))
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

// Put persists the entry for an event identifier, overwriting any prior
// content.
func (c *Cache) Put(eventID string, entry Entry) error {
	token := SanitizeEventID(eventID)
	if token == "" {
		return fmt.Errorf("event id %q sanitizes to an empty token", eventID)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := os.WriteFile(c.path(token), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

func (c *Cache) path(token string) string {
	return filepath.Join(c.dir, token+".json")
}
