// internal/cli/render.go
package pichat

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/ghollingworth/pichat/internal/appconfig"
	"github.com/ghollingworth/pichat/internal/citations"
	"github.com/ghollingworth/pichat/internal/logging"
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
)

var (
	renderModes  []string
	renderOutput string
)

// renderCmd renders a request document in one or more modes.
var renderCmd = &cobra.Command{
	Use:   "render [file|-]",
	Short: "Render a grounded answer with citations",
	Long: `Render decodes a request document (the native shape or a generation response
carrying groundingMetadata), validates it and prints the annotated answer in
each requested mode. Without a file, or with "-", the document is read from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if err := logging.InitFile(cfg.LogFilePath()); err != nil {
			log.Printf("warning: could not open log file: %v", err)
		}
		defer logging.Close()

		source := ""
		if len(args) == 1 {
			source = args[0]
		}
		output := renderOutput
		if output == "" && cfg.JSONMode {
			output = "json"
		}
		return runRender(cmd.OutOrStdout(), cfg, source, cmd.InOrStdin(), renderModes, output, cfg.Debug)
	},
}

func init() {
	renderCmd.Flags().StringSliceVarP(&renderModes, "mode", "m", nil, "render mode (html, markdown, raw, bbcode); repeatable")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output format: json or text (default text, json with --jsonMode)")
	rootCmd.AddCommand(renderCmd)
}

// runRender renders source and writes the results to out.
func runRender(out io.Writer, cfg *appconfig.Config, source string, stdin io.Reader, modes []string, output string, debug bool) error {
	if stdin == nil {
		stdin = os.Stdin
	}
	switch output {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown output format %q (want json or text)", output)
	}

	r, err := renderRequest(cfg, source, stdin, modes)
	if err != nil {
		return err
	}

	if debug {
		pp.Fprintln(out, r.Prepared.Supports, r.Prepared.Table)
	}

	if output == "json" {
		return writeJSON(out, r)
	}
	writeText(out, r)
	return nil
}

func writeJSON(out io.Writer, r *rendered) error {
	payload := make(map[string]citations.Result, len(r.Results))
	for mode, result := range r.Results {
		payload[string(mode)] = result
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}

func writeText(out io.Writer, r *rendered) {
	header := color.New(color.FgGreen, color.Bold).SprintFunc()
	number := color.New(color.FgMagenta).SprintFunc()
	faint := color.New(color.FgHiBlack).SprintFunc()

	for i, mode := range r.Modes {
		if i > 0 {
			fmt.Fprintln(out)
		}
		result := r.Results[mode]
		fmt.Fprintln(out, header(fmt.Sprintf("== %s ==", mode)))
		fmt.Fprintln(out, strings.TrimRight(result.Primary(), "\n"))
		if mode == citations.ModeRaw && result.RawCitations != "" {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Citations:")
			fmt.Fprintln(out, strings.TrimRight(result.RawCitations, "\n"))
		}
	}

	ordered := r.Prepared.Table.Ordered()
	if len(ordered) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, header("== sources =="))
	for _, c := range ordered {
		fmt.Fprintf(out, "%s %s %s\n", number(fmt.Sprintf("[%d]", c.Number)), c.Title, faint(c.URL))
	}
}
