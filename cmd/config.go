package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samcaf/librarian/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the user-level configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	Long: `Write ~/.librarian/config.toml with the default settings. An existing
file is left alone.

Settings (flags and LIBRARIAN_* environment variables override them):
  default_project   project root used when --project is not given
  lock_timeout      how long mutations wait for a catalog lock
  log.verbose       debug logging
  log.json          JSON log lines`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	path, created, err := config.WriteDefault()
	if err != nil {
		return err
	}
	if created {
		printOK("", fmt.Sprintf("Config written: %s", path))
	} else {
		printSkip("", fmt.Sprintf("Config already exists: %s", path))
	}
	return nil
}
