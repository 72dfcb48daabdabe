package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWhenNoPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, "nation_save.json", cfg.SavePath)
	assert.Equal(t, 10000, cfg.Country().Population)
	assert.Equal(t, 50, cfg.Country().Resources.Reputation)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "civica.yaml", `
seed: 42
workers: 4
tick_interval: 2s
log:
  level: debug
api:
  port: 9090
founding:
  name: Utopia
  population: 500
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 2*time.Second, cfg.TickInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 3, cfg.Log.MaxBackups, "unset keys keep defaults")
	assert.Equal(t, 9090, cfg.API.Port)

	f := cfg.Country()
	assert.Equal(t, "Utopia", f.Name)
	assert.Equal(t, 500, f.Population)
	assert.Equal(t, 5000, f.Resources.Food)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeFile(t, "bad.yaml", "workers: 0\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "workers")

	path = writeFile(t, "broken.yaml", "seed: [\n")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	env := map[string]string{
		"CIVICA_SEED":          "7",
		"CIVICA_WORKERS":       "3",
		"CIVICA_API_PORT":      "8181",
		"CIVICA_ADMIN_KEY":     "hunter2",
		"CIVICA_TICK_INTERVAL": "250ms",
		"CIVICA_TELEMETRY":     "true",
		"CIVICA_SAVE_PATH":     "saves/mine.json.zst",
		"CIVICA_CORS_ORIGINS":  "https://a.example,https://b.example",
	}
	cfg := Defaults()
	err := cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 8181, cfg.API.Port)
	assert.Equal(t, "hunter2", cfg.API.AdminKey)
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.True(t, cfg.Telemetry)
	assert.Equal(t, "saves/mine.json.zst", cfg.SavePath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.API.Origins)
}

func TestEnvOverrideErrors(t *testing.T) {
	cfg := Defaults()
	err := cfg.applyEnv(func(k string) (string, bool) {
		switch k {
		case "CIVICA_WORKERS":
			return "many", true
		case "CIVICA_TICK_INTERVAL":
			return "soon", true
		}
		return "", false
	})
	assert.ErrorContains(t, err, "CIVICA_WORKERS")
	assert.ErrorContains(t, err, "CIVICA_TICK_INTERVAL")
	assert.Equal(t, 1, cfg.Workers)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "CIVICA_ADMIN_KEY=from-dotenv\n")
	t.Setenv("CIVICA_ADMIN_KEY", "")
	os.Unsetenv("CIVICA_ADMIN_KEY")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv("CIVICA_ADMIN_KEY"))

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}
