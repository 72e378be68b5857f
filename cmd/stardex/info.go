package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print archive location, version and contents summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dex, _, err := openDex(ctx)
			if err != nil {
				return err
			}
			defer dex.Close()

			h, err := dex.Header()
			if err != nil {
				return err
			}
			types, err := dex.TypeNames()
			if err != nil {
				return err
			}

			w := os.Stdout
			fmt.Fprintf(w, "archive:  %s\n", dex.ArchivePath())
			fmt.Fprintf(w, "state:    %s\n", dex.State())
			fmt.Fprintf(w, "version:  %d.%d\n", h.Version>>16, h.Version&0xFFFF)
			fmt.Fprintf(w, "size:     %d bytes\n", h.FileSize)
			fmt.Fprintf(w, "species:  %d\n", h.RecordCount)
			fmt.Fprintf(w, "types:    %s\n", strings.Join(types, ", "))
			return nil
		},
	}
}
