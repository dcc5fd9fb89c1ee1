package commands

import (
	"os"
	"path/filepath"

	"github.com/dyluth/frontdesk/internal/printer"
	"github.com/dyluth/frontdesk/internal/scaffold"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

var (
	initHotel   string
	initBaseDir string
	forceInit   bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new front desk",
	Long: `Initialize a new front desk with default configuration.

Creates:
  • frontdesk.yml - Hotel, storage, Redis and server configuration
  • <base-dir>/... - The empty folder tree (only with --base-dir)

Use --force to reinitialize an existing setup (WARNING: overwrites frontdesk.yml).`,
	RunE: runInit,
}

func init() {
	// Note: Cannot use -f shorthand because it conflicts with global --config flag
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing frontdesk.yml")
	initCmd.Flags().StringVar(&initHotel, "hotel", "default", "Hotel name used to namespace Redis keys")
	initCmd.Flags().StringVar(&initBaseDir, "base-dir", "", "Folder tree root for JSON records (empty for none)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	res, err := scaffold.Initialize(scaffold.Options{
		Dir:     filepath.Dir(configPath),
		Hotel:   initHotel,
		BaseDir: initBaseDir,
		Force:   forceInit,
	})
	if err != nil {
		return printer.Error("initialization failed", err.Error(), nil)
	}
	if filepath.Base(configPath) != filepath.Base(res.ConfigPath) {
		if err := os.Rename(res.ConfigPath, configPath); err != nil {
			return errors.Errorf("failed to move configuration to %s: %w", configPath, err)
		}
		res.ConfigPath = configPath
	}

	scaffold.PrintSuccess(cmd.OutOrStdout(), res)
	return nil
}
