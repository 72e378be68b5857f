package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stardex-app/stardex"
)

func renewCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "renew",
		Short: "Re-fetch the dataset and atomically replace the archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRenew(cmd, quiet)
		},
	}
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress progress output")
	return cmd
}

func runRenew(cmd *cobra.Command, quiet bool) error {
	ctx := cmd.Context()

	var optFns []func(*stardex.Options)
	if !quiet {
		optFns = append(optFns, stardex.WithProgress(progressPrinter()))
	}
	dex, _, err := newDex(optFns...)
	if err != nil {
		return err
	}
	defer dex.Close()

	// A missing archive makes OpenOrBuild run the full sync already; only
	// renew on top of an archive that existed before.
	_, statErr := os.Stat(dex.ArchivePath())
	if _, err := dex.OpenOrBuild(ctx); err != nil {
		return err
	}
	if statErr == nil {
		if err := dex.Renew(ctx); err != nil {
			return fmt.Errorf("renew failed, previous archive kept: %w", err)
		}
	}

	count, err := dex.Count()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "renewed: %d species\n", count)
	if skipped := dex.Skipped(); skipped > 0 {
		fmt.Fprintf(os.Stdout, "%d species skipped\n", skipped)
	}
	return nil
}
