// internal/cli/sources.go
package pichat

import (
	"context"
	"fmt"
	"log"

	"github.com/ghollingworth/pichat/internal/appconfig"
	"github.com/ghollingworth/pichat/internal/logging"
	"github.com/ghollingworth/pichat/internal/sources"
	"github.com/spf13/cobra"
)

// sourcesCmd groups the source catalog commands.
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Source URL catalog utilities",
}

// sourcesIndexCmd builds the JSONL catalog from the document corpus.
var sourcesIndexCmd = &cobra.Command{
	Use:   "index [corpus]",
	Short: "Build the title to URL catalog from uploaded documents",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if err := logging.Init(cfg.LogFilePath()); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		defer logging.Close()

		corpus := cfg.CorpusPath()
		if len(args) == 1 {
			corpus = args[0]
		}
		_, err := indexSources(context.Background(), cfg, corpus)
		return err
	},
}

// sourcesLookupCmd resolves one title through the catalog.
var sourcesLookupCmd = &cobra.Command{
	Use:   "lookup <title>",
	Short: "Print the URL catalogued for a document title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		catalog, err := sources.LoadCatalog(cfg.CatalogPath())
		if err != nil {
			return err
		}
		url, ok := catalog.Lookup(args[0])
		if !ok {
			return fmt.Errorf("no catalogued URL for %q", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

// indexSources scans corpus and writes the catalog to the configured path.
func indexSources(ctx context.Context, cfg *appconfig.Config, corpus string) ([]sources.Entry, error) {
	entries, err := sources.BuildCatalog(ctx, corpus, sources.Options{
		AllowedExtensions: cfg.AllowedExtensions(),
		ExcludeGlobs:      cfg.SourcesExcludeGlobs,
		HeaderScanLines:   cfg.HeaderScanLines(),
		Status:            log.Printf,
	})
	if err != nil {
		return nil, err
	}
	if err := sources.WriteCatalog(cfg.CatalogPath(), entries); err != nil {
		return nil, err
	}
	log.Printf("[SOURCES] wrote %d entries to %s", len(entries), cfg.CatalogPath())
	return entries, nil
}

func init() {
	sourcesCmd.AddCommand(sourcesIndexCmd)
	sourcesCmd.AddCommand(sourcesLookupCmd)
	rootCmd.AddCommand(sourcesCmd)
}
