package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stardex-app/stardex"
	"github.com/stardex-app/stardex/fetch"
)

func syncCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch the dataset and build the archive (no-op when it already exists)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, quiet)
		},
	}
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress progress output")
	return cmd
}

func runSync(cmd *cobra.Command, quiet bool) error {
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

	state, err := dex.OpenOrBuild(ctx)
	if err != nil {
		return err
	}

	count, err := dex.Count()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s: %d species in %s\n", state, count, dex.ArchivePath())
	if skipped := dex.Skipped(); skipped > 0 {
		fmt.Fprintf(os.Stdout, "%d species skipped; run renew to retry\n", skipped)
	}
	return nil
}

func progressPrinter() func(fetch.Progress) {
	return func(p fetch.Progress) {
		if p.Total == 0 {
			return
		}
		fmt.Fprintf(os.Stderr, "\r%s: %d/%d", p.Stage, p.Done, p.Total)
		if p.Done == p.Total {
			fmt.Fprintln(os.Stderr)
		}
	}
}
