// internal/cli/root.go
package pichat

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ghollingworth/pichat/internal/appconfig"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
)

// boolFlags are the persistent boolean flags mirrored from the config file.
var boolFlags = []string{"debug", "jsonMode", "gfm", "unsafeHTML"}

var rootCmd = &cobra.Command{
	Use:           "pichat",
	Short:         "pichat renders grounded answers with citations as HTML, Markdown, plain text or BBCode",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 1) Load config (file or defaults)
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		// 2) If user did NOT set a flag, copy the config value into the flag so
		//    both pflags and viper reflect the same, final value.
		for _, name := range boolFlags {
			if flag := cmd.Flags().Lookup(name); flag != nil && !flag.Changed {
				_ = cmd.Flags().Set(name, strconv.FormatBool(viper.GetBool(name)))
			}
		}

		// 3) Materialize the fully merged configuration into currentConfig
		//    (flags > config > defaults).
		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = viper.ConfigFileUsed()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		currentConfig = &cfg
		return nil
	},
}

// SetVersionInfo sets the version string reported by --version.
func SetVersionInfo(version, commit, date string) {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug output")
	rootCmd.PersistentFlags().Bool("jsonMode", false, "print results as JSON")
	rootCmd.PersistentFlags().Bool("gfm", false, "enable GitHub Flavored Markdown for html output")
	rootCmd.PersistentFlags().Bool("unsafeHTML", false, "pass raw HTML in answers through to html output")
	rootCmd.PersistentFlags().String("offsetUnit", "", "offset unit of request documents (rune or byte)")
	rootCmd.PersistentFlags().String("logFile", "", "log file path")

	for _, name := range append(append([]string{}, boolFlags...), "offsetUnit", "logFile") {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config and sets safe defaults.
func ensureConfigLoaded() error {
	viper.SetDefault("debug", false)
	viper.SetDefault("jsonMode", false)
	viper.SetDefault("gfm", false)
	viper.SetDefault("unsafeHTML", false)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			// An explicit --config path that does not exist is treated like no file.
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// getConfig returns the merged configuration, or defaults when the root
// command has not run.
func getConfig() *appconfig.Config {
	if currentConfig == nil {
		return &appconfig.Config{}
	}
	return currentConfig
}

// Helper accessors (reflect merged Viper state)
func DebugEnabled() bool    { return viper.GetBool("debug") }
func JSONModeEnabled() bool { return viper.GetBool("jsonMode") }
