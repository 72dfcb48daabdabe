// Package persistence stores countries: SQLite for the long-running daemon
// and JSON save documents for the interactive shell.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/civica/internal/nation"
)

// DB wraps a SQLite connection for country persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// One connection serialises writers from the clock and the API.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS country (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		population INTEGER NOT NULL,
		year INTEGER NOT NULL,
		food INTEGER NOT NULL,
		money INTEGER NOT NULL,
		tech INTEGER NOT NULL,
		reputation INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cities (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		population INTEGER NOT NULL,
		economy INTEGER NOT NULL,
		crime INTEGER NOT NULL,
		happiness INTEGER NOT NULL,
		features_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS laws (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		impact_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		description TEXT NOT NULL,
		effect_json TEXT NOT NULL,
		year INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS country_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_year ON events(year);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type countryRow struct {
	Name        string `db:"name"`
	Description string `db:"description"`
	Population  int    `db:"population"`
	Year        int    `db:"year"`
	Food        int    `db:"food"`
	Money       int    `db:"money"`
	Tech        int    `db:"tech"`
	Reputation  int    `db:"reputation"`
}

type cityRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Population   int    `db:"population"`
	Economy      int    `db:"economy"`
	Crime        int    `db:"crime"`
	Happiness    int    `db:"happiness"`
	FeaturesJSON string `db:"features_json"`
}

type lawRow struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	ImpactJSON  string `db:"impact_json"`
}

type eventRow struct {
	ID          string `db:"id"`
	Description string `db:"description"`
	EffectJSON  string `db:"effect_json"`
	Year        int    `db:"year"`
}

// SaveCountry writes the whole country in one transaction (full replace).
func (db *DB) SaveCountry(s nation.Snapshot) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"country", "cities", "laws", "events"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	_, err = tx.Exec(`INSERT INTO country
		(id, name, description, population, year, food, money, tech, reputation)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Name, s.Description, s.Population, s.Year,
		s.Resources.Food, s.Resources.Money, s.Resources.Tech, s.Resources.Reputation,
	)
	if err != nil {
		return fmt.Errorf("insert country: %w", err)
	}

	if err := saveCities(tx, s.Cities); err != nil {
		return err
	}
	if err := saveLaws(tx, s.Laws); err != nil {
		return err
	}
	if err := saveEvents(tx, s.Events); err != nil {
		return err
	}

	return tx.Commit()
}

func saveCities(tx *sqlx.Tx, cities []nation.City) error {
	stmt, err := tx.Preparex(`INSERT INTO cities
		(id, position, name, population, economy, crime, happiness, features_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range cities {
		features := c.Features
		if features == nil {
			features = []string{}
		}
		featuresJSON, _ := json.Marshal(features)
		if _, err := stmt.Exec(c.ID, i, c.Name, c.Population, c.Economy, c.Crime, c.Happiness, string(featuresJSON)); err != nil {
			return fmt.Errorf("insert city %s: %w", c.ID, err)
		}
	}
	return nil
}

func saveLaws(tx *sqlx.Tx, laws []nation.Law) error {
	for i, l := range laws {
		impactJSON, _ := json.Marshal(l.Impact)
		_, err := tx.Exec(
			"INSERT INTO laws (id, position, title, description, impact_json) VALUES (?, ?, ?, ?, ?)",
			l.ID, i, l.Title, l.Description, string(impactJSON),
		)
		if err != nil {
			return fmt.Errorf("insert law %s: %w", l.ID, err)
		}
	}
	return nil
}

func saveEvents(tx *sqlx.Tx, events []nation.Event) error {
	for i, e := range events {
		effectJSON, _ := json.Marshal(e.Effect)
		_, err := tx.Exec(
			"INSERT INTO events (id, position, description, effect_json, year) VALUES (?, ?, ?, ?, ?)",
			e.ID, i, e.Description, string(effectJSON), e.Year,
		)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", e.ID, err)
		}
	}
	return nil
}

// HasCountry reports whether a country has been saved.
func (db *DB) HasCountry() bool {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM country"); err != nil {
		return false
	}
	return n > 0
}

// LoadCountry reads the saved country. Returns ErrNotFound when nothing has
// been saved and ErrMalformed when stored JSON columns cannot be decoded.
func (db *DB) LoadCountry() (nation.Snapshot, error) {
	var snap nation.Snapshot

	tx, err := db.conn.Beginx()
	if err != nil {
		return snap, err
	}
	defer tx.Rollback()

	var row countryRow
	err = tx.Get(&row, "SELECT name, description, population, year, food, money, tech, reputation FROM country WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return snap, ErrNotFound
	}
	if err != nil {
		return snap, fmt.Errorf("load country: %w", err)
	}
	snap = nation.Snapshot{
		Name:        row.Name,
		Description: row.Description,
		Population:  row.Population,
		Year:        row.Year,
		Resources: nation.Resources{
			Food:       row.Food,
			Money:      row.Money,
			Tech:       row.Tech,
			Reputation: row.Reputation,
		},
	}

	var cities []cityRow
	if err := tx.Select(&cities, "SELECT id, name, population, economy, crime, happiness, features_json FROM cities ORDER BY position"); err != nil {
		return snap, fmt.Errorf("load cities: %w", err)
	}
	snap.Cities = make([]nation.City, 0, len(cities))
	for _, r := range cities {
		c := nation.City{ID: r.ID, Name: r.Name, Population: r.Population, Economy: r.Economy, Crime: r.Crime, Happiness: r.Happiness}
		if err := json.Unmarshal([]byte(r.FeaturesJSON), &c.Features); err != nil {
			return snap, fmt.Errorf("%w: city %s features: %v", ErrMalformed, r.ID, err)
		}
		snap.Cities = append(snap.Cities, c)
	}

	var laws []lawRow
	if err := tx.Select(&laws, "SELECT id, title, description, impact_json FROM laws ORDER BY position"); err != nil {
		return snap, fmt.Errorf("load laws: %w", err)
	}
	snap.Laws = make([]nation.Law, 0, len(laws))
	for _, r := range laws {
		l := nation.Law{ID: r.ID, Title: r.Title, Description: r.Description}
		if err := json.Unmarshal([]byte(r.ImpactJSON), &l.Impact); err != nil {
			return snap, fmt.Errorf("%w: law %s impact: %v", ErrMalformed, r.ID, err)
		}
		snap.Laws = append(snap.Laws, l)
	}

	var events []eventRow
	if err := tx.Select(&events, "SELECT id, description, effect_json, year FROM events ORDER BY position"); err != nil {
		return snap, fmt.Errorf("load events: %w", err)
	}
	snap.Events = make([]nation.Event, 0, len(events))
	for _, r := range events {
		e := nation.Event{ID: r.ID, Description: r.Description, Year: r.Year}
		if err := json.Unmarshal([]byte(r.EffectJSON), &e.Effect); err != nil {
			return snap, fmt.Errorf("%w: event %s effect: %v", ErrMalformed, r.ID, err)
		}
		snap.Events = append(snap.Events, e)
	}

	slog.Debug("country loaded", "cities", len(snap.Cities), "laws", len(snap.Laws), "events", len(snap.Events), "year", snap.Year)
	return snap, nil
}

// SaveMeta stores a key-value pair in country metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO country_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM country_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]nation.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		"SELECT id, description, effect_json, year FROM events ORDER BY position DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	events := make([]nation.Event, 0, len(rows))
	for _, r := range rows {
		e := nation.Event{ID: r.ID, Description: r.Description, Year: r.Year}
		if err := json.Unmarshal([]byte(r.EffectJSON), &e.Effect); err != nil {
			return nil, fmt.Errorf("%w: event %s effect: %v", ErrMalformed, r.ID, err)
		}
		events = append(events, e)
	}
	return events, nil
}
