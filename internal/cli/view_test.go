// internal/cli/view_test.go
package pichat

import (
	"errors"
	"testing"

	"github.com/ghollingworth/pichat/internal/citations"
)

// TestViewCmd verifies that the view command renders the request once and
// hands every result to the viewer.
func TestViewCmd(t *testing.T) {
	cfg := testConfig(t)
	cfg.Modes = []string{"markdown", "raw"}
	currentConfig = cfg
	t.Cleanup(func() { currentConfig = nil })

	originalStartViewer := startViewer
	t.Cleanup(func() { startViewer = originalStartViewer })

	var (
		gotSource  string
		gotModes   []citations.Mode
		gotResults map[citations.Mode]citations.Result
	)
	startViewer = func(source string, modes []citations.Mode, results map[citations.Mode]citations.Result) error {
		gotSource, gotModes, gotResults = source, modes, results
		return nil
	}

	path := writeRequest(t, nativeRequest)
	if err := viewCmd.RunE(viewCmd, []string{path}); err != nil {
		t.Fatalf("view command: %v", err)
	}
	if gotSource != path {
		t.Fatalf("expected source %q, got %q", path, gotSource)
	}
	if len(gotModes) != 2 || gotModes[0] != citations.ModeMarkdown || gotModes[1] != citations.ModeRaw {
		t.Fatalf("expected configured modes, got %v", gotModes)
	}
	if got := gotResults[citations.ModeRaw].RawCitations; got != "[1] http://x" {
		t.Fatalf("unexpected raw citations %q", got)
	}
}

func TestViewCmdPropagatesViewerError(t *testing.T) {
	currentConfig = testConfig(t)
	t.Cleanup(func() { currentConfig = nil })

	originalStartViewer := startViewer
	t.Cleanup(func() { startViewer = originalStartViewer })

	sentinel := errors.New("no tty")
	startViewer = func(string, []citations.Mode, map[citations.Mode]citations.Result) error {
		return sentinel
	}
	if err := viewCmd.RunE(viewCmd, []string{writeRequest(t, nativeRequest)}); !errors.Is(err, sentinel) {
		t.Fatalf("expected viewer error, got %v", err)
	}
}
