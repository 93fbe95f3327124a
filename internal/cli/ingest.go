package cli

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"resumerag/internal/adapter/fs"
	"resumerag/internal/adapter/loader"
	"resumerag/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest resumes into the vector store",
	Long: `Ingest resume files (.txt, .md) from the given files or directories.
Directories are walked using the configured include and exclude patterns.
A document is named after its file name; ingesting it again replaces it.

Examples:
  resumerag ingest .                  # Ingest every resume under the current directory
  resumerag ingest alice.txt bob.md   # Ingest specific files`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		paths = []string{GetRootDir()}
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := GetConfig()
	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	indexUC := usecase.NewIndexUseCase(a.service, walker, loader.New())

	total := &usecase.IndexResult{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}

		fmt.Printf("Scanning %s...\n", abs)
		result, err := indexUC.Index(cmd.Context(), abs, newProgress())
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}

		total.FilesIngested += result.FilesIngested
		total.FilesSkipped += result.FilesSkipped
		total.ChunksWritten += result.ChunksWritten
		total.Documents = append(total.Documents, result.Documents...)
		total.Errors = append(total.Errors, result.Errors...)
	}

	fmt.Printf("\nIngest complete:\n")
	fmt.Printf("  Files ingested: %d\n", total.FilesIngested)
	fmt.Printf("  Files skipped:  %d\n", total.FilesSkipped)
	fmt.Printf("  Chunks written: %d\n", total.ChunksWritten)

	if len(total.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range total.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	fmt.Printf("\nCollection stored at: %s\n", a.path)
	return nil
}

// newProgress returns a callback that draws a progress bar once the number
// of files is known.
func newProgress() usecase.ProgressFunc {
	var (
		bar       *progressbar.ProgressBar
		mu        sync.Mutex
		startTime time.Time
	)

	return func(processed, total int, currentFile string) {
		mu.Lock()
		defer mu.Unlock()

		if total == 0 {
			return
		}
		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(processed)

		if processed > 0 && processed < total {
			elapsed := time.Since(startTime)
			rate := float64(processed) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-processed)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Ingesting[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
