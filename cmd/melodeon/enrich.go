package main

import (
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/melodeon/internal/enrich"
	"github.com/franz/melodeon/internal/store"
	"github.com/franz/melodeon/internal/util"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich scanned tracks with catalog metadata",
	Long: `Enrich matches every unenriched track against MusicBrainz and fills
in artists, releases, labels, credits, tags and descriptions. Tracks
MusicBrainz cannot place fall back to Discogs for genre and style.

The default album mode groups tracks by (artist, album) and resolves
each group with a single release search, which is far cheaper against
rate-limited catalogs. --tracks switches to one search per track, which
can place stray files whose album tags are wrong.`,
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().Bool("tracks", false, "enrich track by track instead of by album group")
	enrichCmd.Flags().IntP("workers", "j", 3, "concurrent album workers")
	enrichCmd.Flags().BoolP("force", "f", false, "re-enrich tracks that are already enriched")
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	clients, closeClients := buildClients(st)
	defer closeClients()

	orch := enrich.New(&enrich.Config{Store: st, Clients: clients})

	perTrack, _ := cmd.Flags().GetBool("tracks")
	workers, _ := cmd.Flags().GetInt("workers")
	force, _ := cmd.Flags().GetBool("force")

	var status enrich.Status
	if perTrack {
		status, err = orch.Start(ctx, force)
	} else {
		status, err = orch.StartAlbums(ctx, workers, force)
	}
	if err != nil {
		return err
	}
	if status.Total == 0 {
		util.InfoLog("Nothing to enrich")
		return nil
	}

	bar := progressbar.NewOptions(status.Total,
		progressbar.OptionSetDescription("Enriching"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
	)

	// The run progresses in the background; poll and render until done.
	// A signal requests a cooperative stop and the in-flight unit
	// finishes cleanly.
	stopRequested := false
	for {
		snap := orch.GetStatus()
		bar.Set(snap.Processed)
		if snap.CurrentTrack != "" {
			bar.Describe("Enriching " + truncate(snap.CurrentTrack, 40))
		}
		if !snap.IsEnriching {
			break
		}
		if ctx.Err() != nil && !stopRequested {
			stopRequested = true
			orch.Stop()
			util.InfoLog("Stopping after the current item...")
		}
		time.Sleep(200 * time.Millisecond)
	}
	bar.Finish()

	snap := orch.GetStatus()
	total, enriched, err := store.CountTracks(st.DB())
	if err != nil {
		return err
	}
	util.SuccessLog("Processed %s items in %s; library now %s/%s tracks enriched",
		humanize.Comma(int64(snap.Processed)),
		humanize.RelTime(snap.StartedAt, snap.FinishedAt, "", ""),
		humanize.Comma(enriched), humanize.Comma(total))

	if len(snap.Errors) > 0 {
		util.WarnLog("%d items had problems:", len(snap.Errors))
		for i, e := range snap.Errors {
			if i == 20 && !viper.GetBool("verbose") {
				util.WarnLog("  ... and %d more (use --verbose for all)", len(snap.Errors)-i)
				break
			}
			util.WarnLog("  %s: %s", e.Track, e.Reason)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
