// Command civica runs the interactive nation simulator in the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/talgya/civica/internal/config"
	"github.com/talgya/civica/internal/engine"
	"github.com/talgya/civica/internal/entropy"
	"github.com/talgya/civica/internal/logging"
	"github.com/talgya/civica/internal/persistence"
	"github.com/talgya/civica/internal/shell"
	"github.com/talgya/civica/internal/telemetry"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "YAML settings file")
	loadPath := flag.String("load", "", "start from this save file")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "note: .env not loaded: %v\n", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// The menu owns stdout; logs go to stderr and the optional file.
	closer := logging.Setup(cfg.Log, os.Stderr)
	defer closer.Close()

	ctx := context.Background()
	if cfg.Telemetry {
		shutdown, err := telemetry.Setup(ctx)
		if err != nil {
			slog.Warn("telemetry setup failed", "error", err)
		} else {
			defer shutdown(ctx)
		}
	}

	src := entropy.FromConfig(cfg.RandomOrgKey, cfg.Seed)
	featureSrc := src
	if f, ok := src.(entropy.Forker); ok {
		featureSrc = f.Fork()
	}
	opts := []engine.Option{
		engine.WithSource(src),
		engine.WithWorkers(cfg.Workers),
	}

	country := engine.NewCountry(cfg.Country(), opts...)
	if *loadPath != "" {
		snap, err := persistence.ReadDocument(*loadPath)
		if err != nil && !errors.Is(err, persistence.ErrNotFound) {
			slog.Error("failed to load save", "path", *loadPath, "error", err)
			os.Exit(1)
		}
		if err == nil {
			country = engine.FromSnapshot(snap, opts...)
			slog.Info("save loaded", "path", *loadPath, "year", country.Year())
		}
	}

	fmt.Printf("Welcome to %s!\n\n", country.Name())

	sh := shell.New(os.Stdin, os.Stdout, country, shell.Options{
		SavePath: cfg.SavePath,
		Source:   featureSrc,
		Country:  opts,
	})
	if err := sh.Run(ctx); err != nil {
		slog.Error("shell stopped", "error", err)
		os.Exit(1)
	}
}
