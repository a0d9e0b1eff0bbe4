// internal/sources/catalog.go
package sources

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one JSONL record of the catalog.
type Entry struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Path  string `json:"path"`
}

// Options controls BuildCatalog.
type Options struct {
	AllowedExtensions []string
	ExcludeGlobs      []string
	HeaderScanLines   int
	// Status, when set, receives progress lines.
	Status func(format string, args ...any)
}

// BuildCatalog scans every corpus document under root and returns an entry for
// each one that declares a source URL. The title is the file's base name.
func BuildCatalog(ctx context.Context, root string, opts Options) ([]Entry, error) {
	status := opts.Status
	if status == nil {
		status = func(string, ...any) {}
	}
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("corpus path is required")
	}

	files, err := Discover(root, opts.AllowedExtensions, opts.ExcludeGlobs)
	if err != nil {
		return nil, fmt.Errorf("discover corpus files: %w", err)
	}
	status("[SOURCES] Discovered %d corpus files under %s", len(files), root)

	entries := make([]Entry, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		url, err := extractFileURL(path, opts.HeaderScanLines)
		if err != nil {
			return nil, err
		}
		title := filepath.Base(path)
		if url == "" {
			status("[SOURCES] No URL header in %s", title)
			continue
		}
		entries = append(entries, Entry{Title: title, URL: url, Path: path})
	}
	status("[SOURCES] Catalogued %d of %d files", len(entries), len(files))
	return entries, nil
}

func extractFileURL(path string, maxLines int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open corpus file %s: %w", path, err)
	}
	defer f.Close()
	url, err := ExtractURL(f, maxLines)
	if err != nil {
		return "", fmt.Errorf("read corpus file %s: %w", path, err)
	}
	return url, nil
}

// WriteCatalog writes entries to path as JSONL, creating parent directories.
func WriteCatalog(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create catalog directory: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create catalog file: %w", err)
	}
	defer out.Close()

	writer := bufio.NewWriter(out)
	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)
	for _, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			return fmt.Errorf("write catalog entry: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush catalog: %w", err)
	}
	return nil
}

// Catalog answers title lookups over a set of entries.
type Catalog struct {
	entries []Entry
	byTitle map[string]string
	byStem  map[string]string
}

// NewCatalog indexes entries. The first entry for a title wins.
func NewCatalog(entries []Entry) *Catalog {
	c := &Catalog{
		entries: entries,
		byTitle: make(map[string]string, len(entries)),
		byStem:  make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		if e.URL == "" {
			continue
		}
		if _, ok := c.byTitle[e.Title]; !ok {
			c.byTitle[e.Title] = e.URL
		}
		stem := strings.TrimSuffix(e.Title, filepath.Ext(e.Title))
		if _, ok := c.byStem[stem]; !ok {
			c.byStem[stem] = e.URL
		}
	}
	return c
}

// LoadCatalog reads a JSONL catalog written by WriteCatalog.
func LoadCatalog(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source catalog: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []Entry
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("parse source catalog line %d: %w", lineNo, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read source catalog: %w", err)
	}
	return NewCatalog(entries), nil
}

// Entries returns the catalogued entries.
func (c *Catalog) Entries() []Entry {
	return c.entries
}

// Lookup returns the URL of the document titled title. A title without its
// extension matches too.
func (c *Catalog) Lookup(title string) (string, bool) {
	if c == nil {
		return "", false
	}
	title = strings.TrimSpace(title)
	if url, ok := c.byTitle[title]; ok {
		return url, true
	}
	url, ok := c.byStem[title]
	return url, ok
}
