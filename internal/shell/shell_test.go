package shell

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/civica/internal/engine"
	"github.com/talgya/civica/internal/entropy"
	"github.com/talgya/civica/internal/nation"
)

func runScript(t *testing.T, c *engine.Country, savePath string, lines ...string) (*Shell, string) {
	t.Helper()
	var out bytes.Buffer
	sh := New(strings.NewReader(strings.Join(lines, "\n")+"\n"), &out, c, Options{
		SavePath: savePath,
		Source:   entropy.NewSeeded(11),
		Country:  []engine.Option{engine.WithSource(entropy.NewSeeded(12))},
	})
	require.NoError(t, sh.Run(context.Background()))
	return sh, out.String()
}

func newCountry() *engine.Country {
	return engine.NewCountry(engine.DefaultFounding(), engine.WithSource(entropy.NewSeeded(4)))
}

func TestAddCityFromMenu(t *testing.T) {
	c := newCountry()
	_, out := runScript(t, c, "", "2", "Harbor", "2500", "port, museum", "8")

	city, ok := c.FindCity("Harbor")
	require.True(t, ok)
	assert.Equal(t, 2500, city.Population)
	assert.Equal(t, []string{"port", "museum"}, city.Features)
	assert.Contains(t, out, "Added city: Harbor (Population: 2500)")
	assert.Contains(t, out, "Goodbye!")
}

func TestAddCityDefaultsAndRandomFeatures(t *testing.T) {
	c := newCountry()
	runScript(t, c, "", "2", "Hill", "", "", "8")

	city, ok := c.FindCity("Hill")
	require.True(t, ok)
	assert.Equal(t, nation.DefaultCityPopulation, city.Population)
	require.NotEmpty(t, city.Features)
	assert.LessOrEqual(t, len(city.Features), 3)
	for _, f := range city.Features {
		assert.Contains(t, nation.CityFeatures, f)
	}
}

func TestAddCityRejectsBadPopulation(t *testing.T) {
	c := newCountry()
	_, out := runScript(t, c, "", "2", "Hill", "lots", "8")

	assert.Contains(t, out, "Invalid population")
	assert.Empty(t, c.Snapshot().Cities)
}

func TestLawAndEventFromMenu(t *testing.T) {
	c := newCountry()
	_, out := runScript(t, c, "",
		"3", "Curfew", "Home by nine", "crime:-3, happiness:2",
		"4", "Gold rush", "money:500,food:-100",
		"4", "Typo", "money:lots",
		"8",
	)

	snap := c.Snapshot()
	require.Len(t, snap.Laws, 1)
	assert.Equal(t, map[string]int{"crime": -3, "happiness": 2}, snap.Laws[0].Impact)
	assert.Equal(t, 10500, snap.Resources.Money)
	assert.Equal(t, 4900, snap.Resources.Food)
	require.Len(t, snap.Events, 1)
	assert.Contains(t, out, "Enacted law: Curfew")
	assert.Contains(t, out, "Event occurred: Gold rush")
	assert.Contains(t, out, "Invalid effect")
}

func TestSimulateFromMenu(t *testing.T) {
	c := newCountry()
	_, out := runScript(t, c, "", "5", "1", "8")

	assert.Equal(t, 2, c.Year())
	assert.Contains(t, out, "Simulating year 1...")
	assert.Contains(t, out, "Year 1 complete.")
	assert.Contains(t, out, "==== Civica - Year 2 ====")
}

func TestInvalidChoice(t *testing.T) {
	_, out := runScript(t, newCountry(), "", "9", "8")
	assert.Contains(t, out, "Invalid choice, please try again.")
}

func TestEndOfInputStops(t *testing.T) {
	var out bytes.Buffer
	sh := New(strings.NewReader("1\n"), &out, newCountry(), Options{})
	assert.NoError(t, sh.Run(context.Background()))
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nation.json.zst")
	c := newCountry()
	c.AddCity("Harbor", 1500, []string{"port"})
	saved := c.Snapshot()

	sh, out := runScript(t, c, path,
		"6", "",
		"2", "Later", "10", "park",
		"7", "",
		"8",
	)
	assert.Contains(t, out, "Saved nation to "+path)
	assert.Contains(t, out, "Loaded nation from "+path)

	assert.NotSame(t, c, sh.Country())
	assert.Equal(t, saved, sh.Country().Snapshot())
	_, ok := sh.Country().FindCity("Later")
	assert.False(t, ok)
}

func TestLoadFailureKeepsCountry(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"name":"Half"`), 0o644))

	c := newCountry()
	sh, out := runScript(t, c, filepath.Join(dir, "absent.json"),
		"7", "",
		"7", broken,
		"8",
	)

	assert.Contains(t, out, "No save found at")
	assert.Contains(t, out, "Could not load "+broken)
	assert.Same(t, c, sh.Country())
}

func TestParseDeltas(t *testing.T) {
	got, err := ParseDeltas(" crime : -3 ,happiness:2,noise, crime:-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"crime": -1, "happiness": 2}, got)

	got, err = ParseDeltas("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseDeltas("food:1.5")
	assert.Error(t, err)
	_, err = ParseDeltas(":4")
	assert.Error(t, err)
}

func TestParsePopulation(t *testing.T) {
	n, err := ParsePopulation("  ", 1000)
	require.NoError(t, err)
	assert.Equal(t, 1000, n)

	n, err = ParsePopulation("42", 1000)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = ParsePopulation("-1", 1000)
	assert.Error(t, err)
}

func TestRenderStatus(t *testing.T) {
	c := newCountry()
	c.AddCity("Harbor", 1500, []string{"port", "park"})
	c.AddLaw("Curfew", "", nil)
	for _, d := range []string{"first", "second", "third", "fourth"} {
		c.AddEvent(d, nil)
	}

	out := RenderStatus(c.Snapshot())
	assert.Contains(t, out, "==== Civica - Year 1 ====")
	assert.Contains(t, out, "11,500")
	assert.Contains(t, out, "Harbor")
	assert.Contains(t, out, "port, park")
	assert.Contains(t, out, "Curfew")
	assert.Contains(t, out, "second; third; fourth")
	assert.NotContains(t, out, "first")
}

func TestRenderStatusEmpty(t *testing.T) {
	out := RenderStatus(newCountry().Snapshot())
	assert.Contains(t, out, "Cities:")
	assert.Contains(t, out, "(none)")
}
