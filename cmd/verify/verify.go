package verify

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsh-team/precache/internal/config"
	"github.com/jsh-team/precache/internal/utils/fetch"
	"github.com/jsh-team/precache/internal/utils/logger"
	"github.com/jsh-team/precache/internal/workers/verify"
)

var (
	baseURL           string
	concurrency       int
	requestsPerSecond int
	timeout           int
)

// VerifyCmd checks a deployed site against a built worker's manifest.
var VerifyCmd = &cobra.Command{
	Use:   "verify <worker-file>",
	Short: "Check that a deployed site serves the files listed in a worker's manifest",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		failed, err := runVerify(cmd.Context(), args[0])
		if err != nil {
			logger.Error("Verify failed: %v", err)
			os.Exit(1)
		}
		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	VerifyCmd.Flags().StringVarP(&baseURL, "base-url", "u", "", "URL the output directory is served from")
	VerifyCmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel requests (default from config, else 4)")
	VerifyCmd.Flags().IntVar(&requestsPerSecond, "rps", 0, "Maximum requests per second (default from config, else 10)")
	VerifyCmd.Flags().IntVar(&timeout, "timeout", 0, "Request timeout in seconds (default from config, else 30)")

	VerifyCmd.MarkFlagRequired("base-url")
}

// settings merges flags over the config file's verify block.
func settings() (config.VerifyConfig, error) {
	s := config.VerifyConfig{
		Concurrency:       config.DefaultVerifyConcurrency,
		RequestsPerSecond: config.DefaultRequestsPerSecond,
		Timeout:           config.DefaultVerifyTimeout,
	}

	cfg, err := config.LoadSelected()
	switch {
	case err == nil:
		s = cfg.Verify
	case config.ConfigFile != "":
		return s, err
	default:
		logger.Debug("No config file, using verify defaults: %v", err)
	}

	if concurrency > 0 {
		s.Concurrency = concurrency
	}
	if requestsPerSecond > 0 {
		s.RequestsPerSecond = requestsPerSecond
	}
	if timeout > 0 {
		s.Timeout = timeout
	}
	return s, nil
}

func runVerify(ctx context.Context, workerFile string) (bool, error) {
	s, err := settings()
	if err != nil {
		return false, err
	}

	entries, err := verify.ReadManifest(workerFile)
	if err != nil {
		return false, err
	}
	logger.Info("Verifying %d entries against %s", len(entries), baseURL)

	fetcher := fetch.NewAssetFetcher(s.RequestsPerSecond, time.Duration(s.Timeout)*time.Second)
	pool := verify.NewVerifyWorkerPool(s.Concurrency, fetcher)
	results, err := pool.Run(ctx, baseURL, entries)
	if err != nil {
		return false, err
	}

	for _, result := range results {
		line := fmt.Sprintf("%-10s %s", result.Status, result.Entry.URL)
		switch result.Status {
		case verify.StatusChanged:
			line += fmt.Sprintf(" (expected %s, got %s)", *result.Entry.Revision, result.Actual)
		case verify.StatusMissing:
			if result.Err != nil {
				line += fmt.Sprintf(" (%v)", result.Err)
			}
		}
		fmt.Println(line)
	}

	summary := verify.Summarize(results)
	fmt.Printf("\n%d ok, %d changed, %d missing, %d unchecked\n",
		summary[verify.StatusOK], summary[verify.StatusChanged], summary[verify.StatusMissing], summary[verify.StatusUnchecked])
	return summary.Failed(), nil
}
