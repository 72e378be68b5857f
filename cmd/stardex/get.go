package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stardex-app/stardex"
	"github.com/stardex-app/stardex/archive"
	"github.com/stardex-app/stardex/model"
)

func findByName(dex *stardex.Dex, name string) (archive.RecordView, error) {
	all, err := dex.All()
	if err != nil {
		return archive.RecordView{}, err
	}
	for v := range all {
		if strings.EqualFold(v.Name(), name) {
			return v, nil
		}
	}
	return archive.RecordView{}, fmt.Errorf("%w: name %q", stardex.ErrNotFound, name)
}

func getCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id|name>",
		Short: "Print one species by id or exact name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, args[0])
		},
	}
	return cmd
}

func runGet(cmd *cobra.Command, arg string) error {
	ctx := cmd.Context()

	dex, _, err := openDex(ctx)
	if err != nil {
		return err
	}
	defer dex.Close()

	var v archive.RecordView
	if id, parseErr := strconv.ParseUint(arg, 10, 32); parseErr == nil {
		v, err = dex.Get(model.SpeciesID(id))
	} else {
		v, err = findByName(dex, arg)
	}
	if err != nil {
		return err
	}

	w := os.Stdout
	stats := v.Stats()
	fmt.Fprintf(w, "#%d %s\n", v.ID(), v.Name())
	fmt.Fprintf(w, "Generation: %s\n", v.Generation())
	fmt.Fprintf(w, "Types:      %s\n", strings.Join(v.Types(), ", "))
	fmt.Fprintf(w, "Abilities:  %s\n", strings.Join(v.Abilities(), ", "))
	fmt.Fprintf(w, "Height:     %d  Weight: %d\n", v.Height(), v.Weight())
	fmt.Fprintf(w, "Stats:      HP %d / Atk %d / Def %d / SpA %d / SpD %d / Spe %d (total %d)\n",
		stats.HP, stats.Attack, stats.Defense, stats.SpAttack, stats.SpDefense, stats.Speed, stats.Total())

	if evo := v.EvolutionIDs(); len(evo) > 0 {
		parts := make([]string, len(evo))
		for i, e := range evo {
			parts[i] = fmt.Sprintf("#%d", e)
		}
		fmt.Fprintf(w, "Evolution:  %s\n", strings.Join(parts, " -> "))
	}

	if flavor := v.FlavorText(); flavor != "" {
		fmt.Fprintf(w, "\n%s\n", flavor)
	}

	if encs := v.Encounters(); len(encs) > 0 {
		fmt.Fprintln(w, "\nEncounters:")
		for _, enc := range encs {
			fmt.Fprintf(w, "  %s\n", enc.Area)
			for _, m := range enc.Methods {
				fmt.Fprintf(w, "    %s\n", m)
			}
		}
	}
	return nil
}
