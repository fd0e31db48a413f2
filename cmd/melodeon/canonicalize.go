package main

import (
	"github.com/spf13/cobra"

	"github.com/franz/melodeon/internal/dedupe"
	"github.com/franz/melodeon/internal/util"
)

var canonicalizeCmd = &cobra.Command{
	Use:   "canonicalize",
	Short: "Rewrite tags and roles into their canonical forms",
	Long: `Canonicalize folds tag and credit role spelling variants into one
canonical form ("hip hop", "Hip hop" and "rap" all become "Hip-Hop"),
merging rows that collapse to the same name. It also backfills artist
sort names once for rows written before sort names existed. A completed
pass is recorded in the migration ledger and later runs no-op; pass
--force to run again over newly scanned data.`,
	RunE: runCanonicalize,
}

var canonicalizeForce bool

func init() {
	canonicalizeCmd.Flags().BoolVar(&canonicalizeForce, "force", false, "run even when a prior pass is recorded")
	rootCmd.AddCommand(canonicalizeCmd)
}

func runCanonicalize(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	tags, roles, ran, err := dedupe.CanonicalizeOnce(st, canonicalizeForce)
	if err != nil {
		return err
	}
	if !ran {
		util.InfoLog("Canonicalize: already applied, use --force to re-run")
		return nil
	}

	util.SuccessLog("Canonicalize: %d tags and %d roles rewritten", tags, roles)
	return nil
}
