package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stardex-app/stardex"
	"github.com/stardex-app/stardex/archive"
	"github.com/stardex-app/stardex/model"
)

func queryCmd() *cobra.Command {
	var (
		types     []string
		exclusive bool
		gens      []string
		name      string
		minTotal  int32
		minStats  statFlags
		page      int
		perPage   int
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "List species matching the given filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := archive.Query{
				Types:    types,
				Name:     name,
				MinTotal: minTotal,
				MinStats: minStats.stats(),
			}
			var err error
			if q.Generations, err = parseGenerations(gens); err != nil {
				return err
			}
			modeChanged := cmd.Flags().Changed("all-types")
			return runQuery(cmd, q, modeChanged, exclusive, page, perPage)
		},
	}
	cmd.Flags().StringSliceVar(&types, "type", nil, "Type tag filter (repeatable)")
	cmd.Flags().BoolVar(&exclusive, "all-types", false, "Require all selected types instead of any")
	cmd.Flags().StringSliceVar(&gens, "gen", nil, "Generation filter, e.g. generation-i (repeatable)")
	cmd.Flags().StringVar(&name, "name", "", "Name substring filter")
	cmd.Flags().Int32Var(&minTotal, "min-total", 0, "Minimum stat total")
	minStats.register(cmd)
	cmd.Flags().IntVar(&page, "page", 1, "Result page, 1-based")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Page size (0: config default)")
	return cmd
}

// statFlags groups the six per-stat minimum flags.
type statFlags struct {
	hp, atk, def, spa, spd, spe int32
}

func (f *statFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int32Var(&f.hp, "min-hp", 0, "Minimum HP")
	cmd.Flags().Int32Var(&f.atk, "min-attack", 0, "Minimum Attack")
	cmd.Flags().Int32Var(&f.def, "min-defense", 0, "Minimum Defense")
	cmd.Flags().Int32Var(&f.spa, "min-sp-attack", 0, "Minimum Sp. Attack")
	cmd.Flags().Int32Var(&f.spd, "min-sp-defense", 0, "Minimum Sp. Defense")
	cmd.Flags().Int32Var(&f.spe, "min-speed", 0, "Minimum Speed")
}

func (f *statFlags) stats() model.Stats {
	return model.Stats{
		HP:        f.hp,
		Attack:    f.atk,
		Defense:   f.def,
		SpAttack:  f.spa,
		SpDefense: f.spd,
		Speed:     f.spe,
	}
}

// parseGenerations resolves --gen values, rejecting unrecognized names so
// a typo cannot silently match the unknown-generation bucket.
func parseGenerations(names []string) ([]model.Generation, error) {
	var gens []model.Generation
	for _, n := range names {
		g, ok := model.LookupGeneration(n)
		if !ok {
			return nil, fmt.Errorf("unknown generation %q", n)
		}
		gens = append(gens, g)
	}
	return gens, nil
}

// typeModeFor resolves the filter mode: an explicitly set flag wins,
// otherwise the config default applies.
func typeModeFor(flagChanged, exclusive bool, cfg stardex.Config) archive.TypeMode {
	if flagChanged {
		if exclusive {
			return archive.TypeModeExclusive
		}
		return archive.TypeModeInclusive
	}
	return cfg.TypeMode()
}

func runQuery(cmd *cobra.Command, q archive.Query, modeChanged, exclusive bool, page, perPage int) error {
	ctx := cmd.Context()

	dex, cfg, err := openDex(ctx)
	if err != nil {
		return err
	}
	defer dex.Close()

	q.TypeMode = typeModeFor(modeChanged, exclusive, cfg)
	if perPage <= 0 {
		perPage = cfg.PerPage
	}
	if page < 1 {
		page = 1
	}

	results, err := dex.Query(q)
	if err != nil {
		return err
	}

	skip := (page - 1) * perPage
	shown, total := 0, 0
	for v := range results {
		total++
		if total <= skip || shown >= perPage {
			continue
		}
		shown++
		fmt.Fprintf(os.Stdout, "#%-5d %-20s %-12s %s\n",
			v.ID(), v.Name(), strings.Join(v.Types(), "/"), v.Generation())
	}

	if total == 0 {
		fmt.Fprintln(os.Stdout, "No species found.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%d of %d matches (page %d)\n", shown, total, page)
	return nil
}
