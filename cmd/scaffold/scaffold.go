package scaffold

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jsh-team/precache/internal/config"
	"github.com/jsh-team/precache/internal/utils/logger"
)

// InitCmd writes a starter config file.
var InitCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a starter precache.yaml",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := config.ConfigFile
		if path == "" {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			path = filepath.Join(dir, config.DefaultConfigFile)
		}

		if err := config.WriteDefault(path); err != nil {
			logger.Error("Init failed: %v", err)
			os.Exit(1)
		}
		logger.Info("Created %s", path)
	},
}
