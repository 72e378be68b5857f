package main

import (
	"context"
	"log/slog"

	"github.com/stardex-app/stardex"
)

var (
	dataDir    string
	configPath string
	verbose    bool
)

// newDex resolves the configuration and creates the Dex. No I/O beyond
// reading the config file happens here.
func newDex(optFns ...func(*stardex.Options)) (*stardex.Dex, stardex.Config, error) {
	cfg, err := stardex.LoadConfig(configPath)
	if err != nil {
		return nil, cfg, err
	}

	dir := dataDir
	if dir == "" {
		dir = cfg.DataDir
	}
	if dir == "" {
		dir, err = stardex.DefaultDataDir()
		if err != nil {
			return nil, cfg, err
		}
	}

	logger := stardex.NoopLogger()
	if verbose {
		logger = stardex.NewTextLogger(slog.LevelDebug)
	}

	dex, err := stardex.New(dir, append([]func(*stardex.Options){
		func(o *stardex.Options) {
			cfg.Apply(o)
			o.Logger = logger
		},
	}, optFns...)...)
	return dex, cfg, err
}

// openDex creates the Dex and opens the archive, syncing on first run.
func openDex(ctx context.Context) (*stardex.Dex, stardex.Config, error) {
	dex, cfg, err := newDex()
	if err != nil {
		return nil, cfg, err
	}
	if _, err := dex.OpenOrBuild(ctx); err != nil {
		_ = dex.Close()
		return nil, cfg, err
	}
	return dex, cfg, nil
}
