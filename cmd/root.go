package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/korjavin/gkentei/config"
)

var (
	configFile string
	cfg        *config.Config

	closeLogs = func() error { return nil }
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gkentei",
	Short: "G-Kentei exam preparation backend",
	Long:  `Serve the G-Kentei question bank over HTTP and Telegram, and manage its database.`,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		var err error
		cfg, err = config.LoadFile(configFile)
		if err != nil {
			return err
		}
		closeLogs, err = setupLogging(cfg.Log, os.Stdout)
		return err
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		return closeLogs()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./config.yaml)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
