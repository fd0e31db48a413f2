package main

import (
	"github.com/spf13/cobra"

	"github.com/franz/melodeon/internal/dedupe"
	"github.com/franz/melodeon/internal/util"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Merge duplicate artists and labels",
	Long: `Dedupe merges entity rows that refer to the same artist or label
under case-variant names. Every credit, release and tag link is
repointed to the surviving row, which inherits any profile data it was
missing. A completed pass is recorded in the migration ledger and later
runs no-op; pass --force to run again over newly scanned data.`,
	RunE: runDedupe,
}

var dedupeForce bool

func init() {
	dedupeCmd.Flags().BoolVar(&dedupeForce, "force", false, "run even when a prior pass is recorded")
	rootCmd.AddCommand(dedupeCmd)
}

func runDedupe(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	result, ran, err := dedupe.RunOnce(st, dedupeForce)
	if err != nil {
		return err
	}
	if !ran {
		util.InfoLog("Dedupe: already applied, use --force to re-run")
		return nil
	}
	util.SuccessLog("Dedupe: %d artists merged, %d labels merged, %d tags canonicalized, %d roles renamed",
		result.ArtistsMerged, result.LabelsMerged, result.TagsMerged, result.RolesRenamed)
	for _, e := range result.Errors {
		util.ErrorLog("Dedupe: %v", e)
	}
	if len(result.Errors) > 0 {
		return result.Errors[0]
	}
	return nil
}
