package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/franz/melodeon/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show library statistics",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	total, enriched, err := store.CountTracks(st.DB())
	if err != nil {
		return err
	}
	artists, err := store.ListArtists(st.DB())
	if err != nil {
		return err
	}
	labels, err := store.ListLabels(st.DB())
	if err != nil {
		return err
	}

	fmt.Printf("Tracks:   %s (%s enriched)\n", humanize.Comma(total), humanize.Comma(enriched))
	fmt.Printf("Artists:  %s\n", humanize.Comma(int64(len(artists))))
	fmt.Printf("Labels:   %s\n", humanize.Comma(int64(len(labels))))
	if total > 0 {
		fmt.Printf("Coverage: %.1f%%\n", 100*float64(enriched)/float64(total))
	}
	return nil
}
