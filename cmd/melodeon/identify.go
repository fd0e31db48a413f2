package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/franz/melodeon/internal/acoustid"
	"github.com/franz/melodeon/internal/enrich"
	"github.com/franz/melodeon/internal/ratelimit"
	"github.com/franz/melodeon/internal/store"
)

var identifyCmd = &cobra.Command{
	Use:   "identify <file>",
	Short: "Identify a file by audio fingerprint",
	Long: `Identify computes a chromaprint fingerprint with fpcalc and looks it
up on AcoustID. This works on files whose tags are missing or wrong.
Requires an AcoustID client key (melodeon config set acoustid.client_key
...) and fpcalc on the PATH.

With --apply the best match's recording id is written to the track and
the track is enriched from it.`,
	Args: cobra.ExactArgs(1),
	RunE: runIdentify,
}

func init() {
	identifyCmd.Flags().Bool("apply", false, "write the best match to the track and enrich it")
	rootCmd.AddCommand(identifyCmd)
}

func runIdentify(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if credential(st, store.SettingAcoustIDKey) == "" {
		return fmt.Errorf("AcoustID client key not configured; set it with 'melodeon config set %s <key>'", store.SettingAcoustIDKey)
	}

	limiter := ratelimit.New()
	client := buildAcoustID(st, limiter)

	matches, err := client.Identify(ctx, args[0])
	if err != nil {
		if errors.Is(err, acoustid.ErrFpcalcNotFound) {
			return fmt.Errorf("fpcalc not found; install the chromaprint tools")
		}
		return err
	}
	if len(matches) == 0 {
		fmt.Println("No matches")
		return nil
	}

	for _, m := range matches {
		fmt.Printf("%.2f  %s  %s - %s\n", m.Score, m.RecordingMBID, m.Artist, m.Title)
	}

	apply, _ := cmd.Flags().GetBool("apply")
	if !apply {
		return nil
	}

	track, err := store.GetTrackByPath(st.DB(), args[0])
	if err != nil {
		return err
	}
	if track == nil {
		return fmt.Errorf("file is not in the library; run 'melodeon scan' first")
	}

	best := matches[0]
	track.MBID = best.RecordingMBID

	clients, closeClients := buildClients(st)
	defer closeClients()

	orch := enrich.New(&enrich.Config{Store: st, Clients: clients})
	result := orch.EnrichTrack(ctx, track)
	if !result.Success {
		return fmt.Errorf("enrich failed: %s", result.Reason)
	}
	fmt.Printf("Applied %s to %s\n", result.MBID, track.Path)
	return nil
}
