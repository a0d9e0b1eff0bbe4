// internal/sources/discover.go
// Package sources resolves document titles to source URLs. A catalog is built
// by scanning each corpus document for a "URL: https://..." header line.
package sources

import (
	"bufio"
	"io"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultHeaderScanLines is how many leading lines ExtractURL inspects.
const DefaultHeaderScanLines = 50

var urlHeader = regexp.MustCompile(`^URL:\s*(https?://\S+)`)

// ExtractURL returns the URL of the first "URL: http(s)://..." line among the
// first maxLines lines of r, or "" when there is none.
func ExtractURL(r io.Reader, maxLines int) (string, error) {
	if maxLines <= 0 {
		maxLines = DefaultHeaderScanLines
	}
	reader := bufio.NewReader(r)
	for i := 0; i < maxLines; i++ {
		line, err := reader.ReadString('\n')
		if m := urlHeader.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return m[1], nil
		}
		if err == io.EOF {
			return "", nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", nil
}

// Discover walks root and returns the files whose extension is allowed (any
// extension when allowed is empty) and that match no exclude pattern.
func Discover(root string, allowed []string, exclude []string) ([]string, error) {
	var files []string
	allowedMap := make(map[string]struct{}, len(allowed))
	for _, ext := range allowed {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowedMap[ext] = struct{}{}
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && shouldExclude(path, exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if shouldExclude(path, exclude) {
			return nil
		}
		if len(allowedMap) > 0 {
			if _, ok := allowedMap[strings.ToLower(filepath.Ext(path))]; !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// shouldExclude matches path against glob patterns. A pattern containing "**"
// matches any path that contains the pattern with the "**" removed.
func shouldExclude(path string, patterns []string) bool {
	normalized := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		if strings.Contains(pattern, "**") {
			if trimmed := strings.ReplaceAll(pattern, "**", ""); trimmed != "" && strings.Contains(normalized, trimmed) {
				return true
			}
		}
		if ok, _ := filepath.Match(pattern, normalized); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
