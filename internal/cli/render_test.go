// internal/cli/render_test.go
package pichat

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/ghollingworth/pichat/internal/appconfig"
	"github.com/ghollingworth/pichat/internal/citations"
	"github.com/ghollingworth/pichat/internal/sources"
)

const nativeRequest = `{
	"text": "Line1\nLine2\n",
	"supports": [
		{"startOffset": 0, "endOffset": 11, "sourceRefs": [{"title": "Doc", "url": "http://x", "sourceKey": 1}]}
	]
}`

const generationRequest = `{
	"candidates": [{
		"content": {"parts": [{"text": "GPIO pins are 3.3V."}]},
		"groundingMetadata": {
			"groundingChunks": [
				{"retrievedContext": {"title": "gpio.md"}},
				{"web": {"uri": "https://pi.example/power", "title": "Power"}}
			],
			"groundingSupports": [
				{"segment": {"startIndex": 0, "endIndex": 9}, "groundingChunkIndices": [0, 1]}
			]
		}
	}]
}`

// testConfig returns a config whose catalog and log file live in a temp dir.
func testConfig(t *testing.T) *appconfig.Config {
	t.Helper()
	dir := t.TempDir()
	return &appconfig.Config{
		LogFile:        filepath.Join(dir, "pichat.log"),
		SourcesCorpus:  filepath.Join(dir, "uploads"),
		SourcesCatalog: filepath.Join(dir, "catalog.jsonl"),
	}
}

func writeRequest(t *testing.T, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "request.json")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write request: %v", err)
	}
	return path
}

func disableColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestRunRenderJSON(t *testing.T) {
	cfg := testConfig(t)
	path := writeRequest(t, nativeRequest)

	var out bytes.Buffer
	if err := runRender(&out, cfg, path, nil, []string{"raw", "html"}, "json", false); err != nil {
		t.Fatalf("runRender: %v", err)
	}

	var payload map[string]map[string]any
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	if len(payload) != 2 {
		t.Fatalf("expected raw and html results, got %v", payload)
	}
	if raw, _ := payload["raw"]["raw"].(string); !strings.Contains(raw, "Line2 [1] http://x") {
		t.Fatalf("unexpected raw output %q", raw)
	}
	if cites, _ := payload["raw"]["raw_citations"].(string); cites != "[1] http://x" {
		t.Fatalf("unexpected raw citations %q", cites)
	}
	html, _ := payload["html"]["html"].(string)
	if !strings.Contains(html, `class="citation-range citation-range-1"`) || !strings.Contains(html, `data-chunk-indices="1"`) {
		t.Fatalf("expected wrapped html, got %q", html)
	}
	if md, _ := payload["html"]["markdown"].(string); md != "Line1\nLine2\n" {
		t.Fatalf("expected unmodified markdown for html, got %q", md)
	}
	if _, ok := payload["html"]["raw"]; ok {
		t.Fatal("html result should not carry raw fields")
	}
}

func TestRunRenderTextFromStdin(t *testing.T) {
	disableColor(t)
	cfg := testConfig(t)

	var out bytes.Buffer
	if err := runRender(&out, cfg, "-", strings.NewReader(nativeRequest), []string{"raw", "bbcode"}, "text", false); err != nil {
		t.Fatalf("runRender: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"== raw ==",
		"Line2 [1] http://x",
		"Citations:\n[1] http://x",
		"== bbcode ==",
		"Line2 [url=http://x]1[/url]",
		"== sources ==",
		"[1] Doc http://x",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
	if strings.Index(text, "== raw ==") > strings.Index(text, "== bbcode ==") {
		t.Fatalf("expected modes in requested order:\n%s", text)
	}
}

func TestRunRenderResolvesCatalogTitles(t *testing.T) {
	disableColor(t)
	cfg := testConfig(t)
	if err := sources.WriteCatalog(cfg.CatalogPath(), []sources.Entry{{Title: "gpio.md", URL: "https://pi.example/gpio"}}); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	path := writeRequest(t, generationRequest)

	var out bytes.Buffer
	if err := runRender(&out, cfg, path, nil, []string{"markdown"}, "", false); err != nil {
		t.Fatalf("runRender: %v", err)
	}
	want := "GPIO pins are 3.3V. [1: gpio.md](https://pi.example/gpio) [2: Power](https://pi.example/power)"
	if !strings.Contains(out.String(), want) {
		t.Fatalf("expected %q in output:\n%s", want, out.String())
	}
}

func TestRunRenderUsesRequestModes(t *testing.T) {
	cfg := testConfig(t)
	path := writeRequest(t, `{"text": "hello", "supports": [], "modes": ["phpbb"]}`)

	var out bytes.Buffer
	if err := runRender(&out, cfg, path, nil, nil, "json", false); err != nil {
		t.Fatalf("runRender: %v", err)
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if _, ok := payload[string(citations.ModeBBCode)]; !ok || len(payload) != 1 {
		t.Fatalf("expected only the bbcode result, got %s", out.String())
	}
}

func TestRunRenderDebugDump(t *testing.T) {
	disableColor(t)
	cfg := testConfig(t)
	path := writeRequest(t, nativeRequest)

	var plain, debug bytes.Buffer
	if err := runRender(&plain, cfg, path, nil, []string{"raw"}, "text", false); err != nil {
		t.Fatalf("runRender: %v", err)
	}
	if err := runRender(&debug, cfg, path, nil, []string{"raw"}, "text", true); err != nil {
		t.Fatalf("runRender debug: %v", err)
	}
	if debug.Len() <= plain.Len() || !strings.HasSuffix(debug.String(), plain.String()) {
		t.Fatalf("expected debug dump before the regular output:\n%s", debug.String())
	}
}

func TestRunRenderErrors(t *testing.T) {
	cfg := testConfig(t)
	path := writeRequest(t, nativeRequest)
	var out bytes.Buffer

	if err := runRender(&out, cfg, path, nil, []string{"pdf"}, "json", false); !errors.Is(err, citations.ErrUnknownMode) {
		t.Fatalf("expected unknown mode error, got %v", err)
	}
	if err := runRender(&out, cfg, path, nil, nil, "yaml", false); err == nil {
		t.Fatal("expected unknown output format to fail")
	}
	if err := runRender(&out, cfg, filepath.Join(t.TempDir(), "missing.json"), nil, nil, "json", false); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected missing file error, got %v", err)
	}
	bad := writeRequest(t, `{"text": 3}`)
	if err := runRender(&out, cfg, bad, nil, nil, "json", false); err == nil {
		t.Fatal("expected invalid request to fail validation")
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output on failure, got %q", out.String())
	}
}

func TestRenderCmdHonoursJSONMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.JSONMode = true
	currentConfig = cfg
	t.Cleanup(func() { currentConfig = nil })

	prevModes, prevOutput := renderModes, renderOutput
	renderModes, renderOutput = []string{"raw"}, ""
	t.Cleanup(func() { renderModes, renderOutput = prevModes, prevOutput })

	var out bytes.Buffer
	renderCmd.SetOut(&out)
	t.Cleanup(func() { renderCmd.SetOut(nil) })

	if err := renderCmd.RunE(renderCmd, []string{writeRequest(t, nativeRequest)}); err != nil {
		t.Fatalf("render command: %v", err)
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", out.String(), err)
	}
	if _, err := os.Stat(cfg.LogFilePath()); err != nil {
		t.Fatalf("expected log file to be written: %v", err)
	}
}

type failingReader struct{ t *testing.T }

func (r failingReader) Read([]byte) (int, error) {
	r.t.Fatal("input should not be read")
	return 0, nil
}

func TestRenderRequestChecksFlagModesBeforeReading(t *testing.T) {
	cfg := testConfig(t)
	if _, err := renderRequest(cfg, "-", failingReader{t}, []string{"raw", "pdf"}); !errors.Is(err, citations.ErrUnknownMode) {
		t.Fatalf("expected unknown mode error, got %v", err)
	}

	r, err := renderRequest(cfg, "-", strings.NewReader(nativeRequest), []string{"html"})
	if err != nil {
		t.Fatalf("renderRequest: %v", err)
	}
	if len(r.Modes) != 1 || !strings.Contains(r.Results[citations.ModeHTML].HTML, `data-sourcepos="1:1-2:5"`) {
		t.Fatalf("expected positioned html for the flag mode, got %+v", r.Results)
	}
}
