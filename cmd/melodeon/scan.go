package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/franz/melodeon/internal/scan"
	"github.com/franz/melodeon/internal/util"
)

var scanCmd = &cobra.Command{
	Use:   "scan [directory]",
	Short: "Scan a music directory into the library database",
	Long: `Scan walks a music directory, reads file tags and syncs the track
table with what is on disk. New files are added, changed files refreshed
and vanished files marked missing. Enrichment state of existing tracks
is preserved.

With --watch the command keeps running and applies filesystem changes
as they happen.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolP("watch", "w", false, "keep watching for changes after the scan")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("music directory: %w", err)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	scanner := scan.New(st)

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Scanning"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	start := time.Now()
	result, err := scanner.ScanDirectory(ctx, dir, func(path string) {
		bar.Add(1)
		bar.Describe("Scanning " + filepath.Base(path))
	})
	bar.Finish()
	if err != nil {
		return err
	}

	util.SuccessLog("Scanned in %s: %s added, %s updated, %s missing",
		humanize.RelTime(start, time.Now(), "", ""),
		humanize.Comma(int64(result.Added)),
		humanize.Comma(int64(result.Updated)),
		humanize.Comma(int64(result.Missing)))
	for _, e := range result.Errors {
		util.WarnLog("Scan: %v", e)
	}

	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		return nil
	}

	watcher := scan.NewWatcher(scanner, st)
	if err := watcher.Watch(ctx, dir); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
