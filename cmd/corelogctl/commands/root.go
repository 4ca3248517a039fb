// Package commands implements corelogctl's CLI commands.
package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nanolog/corelog/config"
)

var (
	// Version is injected at build time.
	Version = "dev"

	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "corelogctl",
	Short: "corelog - a log-message arena, wire codec, and tailing source",
	Long: `corelogctl drives a tail -> decode -> fixup pipeline against a log
file on disk for inspection and debugging, and shows a tail-source read
position being persisted into an in-process state store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = filepath.Join(config.DefaultConfigDir(), "config.yaml")
		}
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default: $XDG_CONFIG_HOME/corelog/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(decodeCmd)
}
