// Command civicad runs a country unattended: years advance on a clock, state
// is saved to SQLite after every year, and the HTTP API observes and steers it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/civica/internal/api"
	"github.com/talgya/civica/internal/config"
	"github.com/talgya/civica/internal/engine"
	"github.com/talgya/civica/internal/entropy"
	"github.com/talgya/civica/internal/logging"
	"github.com/talgya/civica/internal/persistence"
	"github.com/talgya/civica/internal/telemetry"
)

const speedMetaKey = "clock_speed"

func main() {
	configPath := flag.String("config", config.DefaultPath, "YAML settings file")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "note: .env not loaded: %v\n", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	closer := logging.Setup(cfg.Log, os.Stdout)
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────
	if cfg.Telemetry {
		shutdown, err := telemetry.Setup(ctx)
		if err != nil {
			slog.Warn("telemetry setup failed, continuing without traces", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// ── Database ──────────────────────────────────────────────────────
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Load or Found Country ─────────────────────────────────────────
	src := entropy.FromConfig(cfg.RandomOrgKey, cfg.Seed)
	opts := []engine.Option{
		engine.WithSource(src),
		engine.WithWorkers(cfg.Workers),
	}

	var country *engine.Country
	snap, err := db.LoadCountry()
	switch {
	case err == nil:
		country = engine.FromSnapshot(snap, opts...)
		slog.Info("country restored",
			"name", snap.Name,
			"year", snap.Year,
			"cities", len(snap.Cities),
			"laws", len(snap.Laws),
			"events", len(snap.Events),
		)
	case errors.Is(err, persistence.ErrNotFound):
		country = engine.NewCountry(cfg.Country(), opts...)
		slog.Info("no saved country, founding a new one", "name", country.Name())
		if err := db.SaveCountry(country.Snapshot()); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	default:
		slog.Error("failed to load country", "error", err)
		os.Exit(1)
	}

	save := func(reason string) {
		if err := db.SaveCountry(country.Snapshot()); err != nil {
			slog.Error("save failed", "reason", reason, "error", err)
		}
	}

	// ── Clock ─────────────────────────────────────────────────────────
	clock := engine.NewClock(cfg.TickInterval, func(ctx context.Context) {
		country.RunTick(ctx)
		save("year")
	})
	if v, err := db.GetMeta(speedMetaKey); err == nil {
		if speed, err := strconv.ParseFloat(v, 64); err == nil {
			clock.SetSpeed(speed)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.API.AdminKey == "" {
		slog.Warn("CIVICA_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Country:  country,
		Clock:    clock,
		DB:       db,
		Port:     cfg.API.Port,
		AdminKey: cfg.API.AdminKey,
		Origins:  cfg.API.Origins,
		OnTick:   func(engine.TickReport) { save("api tick") },
	}
	srv := apiServer.Start()

	// ── Run ───────────────────────────────────────────────────────────
	fmt.Printf("\n%s is alive in year %d with %d people.\n", country.Name(), country.Year(), country.Population())
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
	fmt.Println("Simulating... (Ctrl+C to stop)")

	clock.Run(ctx)

	if err := api.Shutdown(srv, 5*time.Second); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}

	slog.Info("final save...")
	save("shutdown")
	if err := db.SaveMeta(speedMetaKey, strconv.FormatFloat(clock.Speed(), 'f', -1, 64)); err != nil {
		slog.Error("failed to store clock speed", "error", err)
	}

	fmt.Println("Simulation stopped. Country saved.")
}
