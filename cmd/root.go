package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel   string // Log verbosity level
	configPath string // Optional YAML config file

	// cfg is the configuration in effect for the running command.
	cfg = DefaultConfig()
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:           "gsd",
	Short:         "Create, inspect and append to GSD trajectory files",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c := DefaultConfig()
		if configPath != "" {
			loaded, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			c = loaded
		}
		// The flag wins over the config file when given explicitly.
		if cmd.Flags().Changed("log") || c.LogLevel == "" {
			c.LogLevel = logLevel
		}
		level, err := logrus.ParseLevel(c.LogLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		cfg = c
		logrus.Debugf("Using config %+v", cfg)
		return nil
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Errorf("%v", err)
		os.Exit(1)
	}
}

// init sets up the global flags
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
}
