package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/stardex-app/stardex/model"
)

func spritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sprites",
		Short: "Manage the sprite cache",
	}
	cmd.AddCommand(spritesFixCmd())
	cmd.AddCommand(spritesPathCmd())
	return cmd
}

func spritesFixCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "fix",
		Aliases: []string{"renew"},
		Short:   "Re-download every sprite, overwriting the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dex, _, err := openDex(ctx)
			if err != nil {
				return err
			}
			defer dex.Close()

			if err := dex.RenewSprites(ctx); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "sprite cache renewed")
			return nil
		},
	}
}

func spritesPathCmd() *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "path <id>",
		Short: "Print the cached sprite path for a species, downloading it if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid species id %q", args[0])
			}

			dex, _, err := openDex(ctx)
			if err != nil {
				return err
			}
			defer dex.Close()

			deadline := time.Now().Add(wait)
			for {
				path, pending, err := dex.SpritePath(ctx, model.SpeciesID(id))
				if err != nil {
					return err
				}
				if !pending {
					fmt.Fprintln(os.Stdout, path)
					return nil
				}
				if time.Now().After(deadline) {
					return fmt.Errorf("sprite %d still downloading", id)
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(100 * time.Millisecond):
				}
			}
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 10*time.Second, "How long to wait for a pending download")
	return cmd
}
