package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jsh-team/precache/internal/workers/verify"
)

func listManifest(workerFile string) error {
	entries, err := verify.ReadManifest(workerFile)
	if err != nil {
		return err
	}

	dir := filepath.Dir(workerFile)

	// Print table header
	fmt.Printf("%-48s %-34s %s\n", "URL", "REVISION", "SIZE")
	fmt.Println(strings.Repeat("-", 92))

	var total int64
	for _, entry := range entries {
		revision := "null"
		if entry.HasRevision() {
			revision = *entry.Revision
		}

		size := "-"
		if info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(entry.URL))); err == nil {
			size = formatSize(info.Size())
			total += info.Size()
		}
		fmt.Printf("%-48s %-34s %s\n", entry.URL, revision, size)
	}

	fmt.Printf("\n%d entries, %s on disk\n", len(entries), formatSize(total))
	return nil
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

var ManifestCmd = &cobra.Command{
	Use:   "manifest <worker-file>",
	Short: "Print the precache manifest injected into a built worker",
	Long:  `Print every manifest entry of a built worker with its revision and the size of the file next to it in the output directory.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := listManifest(args[0]); err != nil {
			fmt.Printf("Error reading manifest: %v\n", err)
			os.Exit(1)
		}
	},
}
