package appconfig

import (
	"fmt"
	"io"
	"strings"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	modes := "invalid"
	if parsed, err := cfg.RenderModes(); err == nil {
		names := make([]string, len(parsed))
		for i, m := range parsed {
			names[i] = string(m)
		}
		modes = strings.Join(names, ", ")
	}
	unit := "invalid"
	if u, err := cfg.Unit(); err == nil {
		unit = string(u)
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:              %v\n", cfg.Debug)
	fmt.Fprintf(out, "  JSON Mode:          %v\n", cfg.JSONMode)
	fmt.Fprintf(out, "  Log File:           %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Modes:              %s\n", modes)
	fmt.Fprintf(out, "  Offset Unit:        %s\n", unit)
	fmt.Fprintf(out, "  Placeholder Scheme: %s\n", cfg.PlaceholderPrefix())
	fmt.Fprintf(out, "  GFM:                %v\n", cfg.GFM)
	fmt.Fprintf(out, "  Unsafe HTML:        %v\n", cfg.UnsafeHTML)
	fmt.Fprintf(out, "  Sources Corpus:     %s\n", cfg.CorpusPath())
	fmt.Fprintf(out, "  Sources Catalog:    %s\n", cfg.CatalogPath())
	fmt.Fprintf(out, "  Allowed Extensions: %v\n", cfg.AllowedExtensions())
	fmt.Fprintf(out, "  Exclude Globs:      %v\n", cfg.SourcesExcludeGlobs)
	fmt.Fprintf(out, "  URL Header Lines:   %d\n", cfg.HeaderScanLines())
}
