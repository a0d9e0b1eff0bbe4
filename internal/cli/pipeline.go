// internal/cli/pipeline.go
package pichat

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ghollingworth/pichat/internal/appconfig"
	"github.com/ghollingworth/pichat/internal/citations"
	"github.com/ghollingworth/pichat/internal/grounding"
	"github.com/ghollingworth/pichat/internal/logging"
	"github.com/ghollingworth/pichat/internal/markup"
	"github.com/ghollingworth/pichat/internal/sources"
)

// rendered is the output of one pass over a request document.
type rendered struct {
	Source   string
	Request  grounding.Request
	Modes    []citations.Mode
	Prepared citations.Prepared
	Results  map[citations.Mode]citations.Result
}

// newRenderer builds a renderer with the html capabilities installed.
func newRenderer(cfg *appconfig.Config) *citations.Renderer {
	return citations.NewRenderer(
		citations.WithHTML(
			markup.NewConverter(markup.Options{GFM: cfg.GFM, Unsafe: cfg.UnsafeHTML}),
			markup.NewStructurer(logging.LogEvent),
		),
		citations.WithPlaceholderScheme(cfg.PlaceholderPrefix()),
	)
}

// resolveModes picks the modes to render: flag values first, then the modes
// named in the request, then the configured modes.
func resolveModes(cfg *appconfig.Config, flagModes, requestModes []string) ([]citations.Mode, error) {
	switch {
	case len(flagModes) > 0:
		return citations.ParseModes(flagModes)
	case len(requestModes) > 0:
		return citations.ParseModes(requestModes)
	default:
		return cfg.RenderModes()
	}
}

// readInput reads a request document from path, or from stdin when path is
// empty or "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request %q: %w", path, err)
	}
	return data, nil
}

// loadLookup opens the source catalog. A missing catalog disables lookups.
func loadLookup(cfg *appconfig.Config) (grounding.SourceLookup, error) {
	catalog, err := sources.LoadCatalog(cfg.CatalogPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return catalog, nil
}

// renderRequest decodes, validates and renders one request document.
func renderRequest(cfg *appconfig.Config, source string, stdin io.Reader, flagModes []string) (*rendered, error) {
	renderer := newRenderer(cfg)
	if len(flagModes) > 0 {
		modes, err := citations.ParseModes(flagModes)
		if err != nil {
			return nil, err
		}
		if err := renderer.Require(modes...); err != nil {
			return nil, err
		}
	}

	unit, err := cfg.Unit()
	if err != nil {
		return nil, err
	}
	lookup, err := loadLookup(cfg)
	if err != nil {
		return nil, err
	}

	data, err := readInput(source, stdin)
	if err != nil {
		return nil, err
	}
	req, err := grounding.Decode(data, grounding.Options{OffsetUnit: unit, Lookup: lookup})
	if err != nil {
		return nil, err
	}
	logging.LogRequest(source, string(req.Shape), map[string]any{
		"textLength": len(req.Text),
		"supports":   len(req.Supports),
		"modes":      req.Modes,
	})

	modes, err := resolveModes(cfg, flagModes, req.Modes)
	if err != nil {
		return nil, err
	}
	if err := renderer.Require(modes...); err != nil {
		return nil, err
	}

	prepared := renderer.Prepare(req.Text, req.Supports)
	results := make(map[citations.Mode]citations.Result, len(modes))
	for _, mode := range modes {
		result, err := renderer.RenderPrepared(prepared, mode)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", mode, err)
		}
		results[mode] = result
		logging.LogRender(string(mode), logging.RenderStats{
			Supports:  len(prepared.Supports),
			Citations: len(prepared.Table),
			Wrapped:   strings.Count(result.HTML, `class="`+markup.CitationRangeClass+" "),
		})
	}

	return &rendered{
		Source:   source,
		Request:  req,
		Modes:    modes,
		Prepared: prepared,
		Results:  results,
	}, nil
}
