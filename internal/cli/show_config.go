// internal/cli/show_config.go
package pichat

import (
	"github.com/ghollingworth/pichat/internal/appconfig"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// showConfigCmd prints the configuration after flags, config file and
// defaults have been merged.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON configs are loaded properly and overriden by flags accordingly.`,
	Run: func(cmd *cobra.Command, args []string) {
		appconfig.ShowConfig(cmd.OutOrStdout(), viper.ConfigFileUsed(), *getConfig())
	},
}

func init() {
	showCmd.AddCommand(showConfigCmd)
}
