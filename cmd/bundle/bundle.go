package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/spf13/cobra"

	"github.com/jsh-team/precache/internal/config"
	"github.com/jsh-team/precache/internal/utils/files"
	"github.com/jsh-team/precache/internal/utils/logger"
	"github.com/jsh-team/precache/internal/utils/progress"
)

// BundleCmd runs every configuration through esbuild with the precache
// plugin attached.
var BundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Bundle every configuration with esbuild and inject the precache manifest",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runBundle(); err != nil {
			logger.Error("Bundle failed: %v", err)
			os.Exit(1)
		}
	},
}

func runBundle() error {
	cfg, err := config.LoadSelected()
	if err != nil {
		return err
	}

	bar := progress.New(len(cfg.Configurations), "Bundling", config.Quiet)
	failed := 0
	for i, b := range cfg.Configurations {
		name := b.DisplayName(i)
		opts, err := b.ESBuildOptions(cfg.Dir, i)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		if b.Output.Clean {
			if err := files.EmptyDirectory(filepath.Join(opts.AbsWorkingDir, opts.Outdir)); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}

		result := api.Build(opts)
		bar.Add(1)

		for _, msg := range result.Warnings {
			logger.Warn("%s: %s", name, formatMessage(msg))
		}
		for _, msg := range result.Errors {
			logger.Error("%s: %s", name, formatMessage(msg))
		}
		if len(result.Errors) > 0 {
			failed++
			continue
		}
		logger.Info("Bundled %s: %d files", name, len(result.OutputFiles))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d configurations had errors", failed, len(cfg.Configurations))
	}
	return nil
}

func formatMessage(msg api.Message) string {
	var b strings.Builder
	if msg.PluginName != "" {
		fmt.Fprintf(&b, "[%s] ", msg.PluginName)
	}
	if msg.Location != nil {
		fmt.Fprintf(&b, "%s:%d:%d: ", msg.Location.File, msg.Location.Line, msg.Location.Column)
	}
	b.WriteString(msg.Text)
	return b.String()
}
