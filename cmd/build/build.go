package build

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsh-team/precache/internal/bundler"
	"github.com/jsh-team/precache/internal/config"
	"github.com/jsh-team/precache/internal/utils/logger"
	"github.com/jsh-team/precache/internal/utils/progress"
)

// BuildCmd runs every configuration of the config file through the bundler.
var BuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build every configuration and inject the precache manifest",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runBuild(cmd.Context()); err != nil {
			logger.Error("Build failed: %v", err)
			os.Exit(1)
		}
	},
}

func runBuild(ctx context.Context) error {
	cfg, err := config.LoadSelected()
	if err != nil {
		return err
	}

	all, err := cfg.BundlerOptions()
	if err != nil {
		return err
	}

	multi, err := bundler.NewMultiCompiler(all)
	if err != nil {
		return err
	}

	bar := progress.New(len(all), "Building", config.Quiet)
	stats, err := multi.Run(ctx, func(s *bundler.Stats) {
		bar.Add(1)
		report(s)
	})
	if err != nil {
		return err
	}

	if bundler.HasErrors(stats) {
		return fmt.Errorf("%d of %d configurations had errors", countFailed(stats), len(stats))
	}
	return nil
}

func report(s *bundler.Stats) {
	for _, warning := range s.Warnings {
		logger.Warn("%s: %v", s.Name, warning)
	}
	for _, err := range s.Errors {
		logger.Error("%s: %v", s.Name, err)
	}
	logger.Info("Built %s: %d assets in %v", s.Name, len(s.Assets), s.Duration.Round(time.Millisecond))
	for _, name := range s.Assets {
		logger.Debug("  %s", name)
	}
}

func countFailed(stats []*bundler.Stats) int {
	failed := 0
	for _, s := range stats {
		if s.HasErrors() {
			failed++
		}
	}
	return failed
}
