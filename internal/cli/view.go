// internal/cli/view.go
package pichat

import (
	"log"

	"github.com/ghollingworth/pichat/internal/logging"
	"github.com/ghollingworth/pichat/internal/tui"
	"github.com/spf13/cobra"
)

var viewModes []string

// startViewer is swapped out in tests.
var startViewer = tui.Run

// viewCmd opens the interactive viewer on a request document.
var viewCmd = &cobra.Command{
	Use:   "view [file|-]",
	Short: "Browse every render mode of a grounded answer in a terminal viewer",
	Args:  cobra.MaximumNArgs(1),
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
		r, err := renderRequest(cfg, source, cmd.InOrStdin(), viewModes)
		if err != nil {
			return err
		}
		return startViewer(source, r.Modes, r.Results)
	},
}

func init() {
	viewCmd.Flags().StringSliceVarP(&viewModes, "mode", "m", nil, "modes to show (default all configured modes)")
	rootCmd.AddCommand(viewCmd)
}
