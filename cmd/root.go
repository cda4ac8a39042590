package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jsh-team/precache/cmd/build"
	"github.com/jsh-team/precache/cmd/bundle"
	"github.com/jsh-team/precache/cmd/manifest"
	"github.com/jsh-team/precache/cmd/scaffold"
	"github.com/jsh-team/precache/cmd/verify"
	"github.com/jsh-team/precache/internal/config"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"

	rootCmd = &cobra.Command{
		Use:   "precache",
		Short: "Inject a precache manifest into service-worker bundles",
		Long: `precache bundles JavaScript entries and injects the list of emitted
assets, with content revisions, into a service-worker bundle.`,
		Version:      version,
		SilenceUsage: true,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("precache %s\n", version)
			fmt.Printf("Build time: %s\n", buildTime)
			fmt.Printf("Git commit: %s\n", gitCommit)
		},
	}
)

// SetVersion sets the version information
func SetVersion(v, bt, gc string) {
	version = v
	buildTime = bt
	gitCommit = gc
	rootCmd.Version = v
}

// Execute executes the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initLogger)

	rootCmd.PersistentFlags().StringVarP(&config.ConfigFile, "config", "c", "", "Config file (default: precache.yaml, .yml, .json or .jsonc in the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&config.Quiet, "quiet", "q", false, "Only log warnings and errors, hide progress")
	rootCmd.PersistentFlags().StringVar(&config.LogLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(build.BuildCmd)
	rootCmd.AddCommand(bundle.BundleCmd)
	rootCmd.AddCommand(manifest.ManifestCmd)
	rootCmd.AddCommand(verify.VerifyCmd)
	rootCmd.AddCommand(scaffold.InitCmd)
	rootCmd.AddCommand(versionCmd)
}

func initLogger() {
	level := config.LogLevel
	if level == "" && config.Quiet {
		level = "warn"
	}
	if level == "" {
		return
	}

	if err := config.ApplyLogLevel(level); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
