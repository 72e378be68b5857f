package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "stardex",
		Short: "Offline species reference store",
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default: user cache dir)")
	root.PersistentFlags().StringVar(&configPath, "config", "stardex.yaml", "Config file path")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	root.AddCommand(syncCmd())
	root.AddCommand(getCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(renewCmd())
	root.AddCommand(spritesCmd())
	root.AddCommand(infoCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
