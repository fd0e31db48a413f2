package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/franz/melodeon/internal/enrich"
)

var searchCmd = &cobra.Command{
	Use:   "search <artist> <album>",
	Short: "List release candidates for a manual match",
	Long: `Search lists MusicBrainz release candidates for an artist and album
without applying any score threshold. Use the printed release id with
'melodeon match' to apply one to a track the automatic pipeline got
wrong.`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

var matchCmd = &cobra.Command{
	Use:   "match <track-id> <release-id>",
	Short: "Apply a chosen release to a track",
	Long: `Match applies a manually chosen MusicBrainz release to a track,
bypassing the automatic score threshold. Track ids come from the scan
database; release ids from 'melodeon search'.`,
	Args: cobra.ExactArgs(2),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(matchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
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
	releases := orch.SearchReleases(ctx, args[0], args[1])
	if len(releases) == 0 {
		fmt.Println("No candidates found")
		return nil
	}

	for _, r := range releases {
		year := ""
		if y := r.Year(); y > 0 {
			year = strconv.Itoa(y)
		}
		releaseType := ""
		if r.ReleaseGroup != nil {
			releaseType = r.ReleaseGroup.PrimaryType
		}
		fmt.Printf("%s  %-40s %-6s %-10s %s\n",
			r.ID, truncate(r.Title, 40), year, releaseType, r.Country)
	}
	return nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	trackID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("track id %q: %w", args[0], err)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	clients, closeClients := buildClients(st)
	defer closeClients()

	orch := enrich.New(&enrich.Config{Store: st, Clients: clients})
	if err := orch.EnrichTrackWithRelease(ctx, trackID, args[1]); err != nil {
		return err
	}
	fmt.Printf("Track %d matched to release %s\n", trackID, args[1])
	return nil
}
