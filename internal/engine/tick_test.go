package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/civica/internal/entropy"
	"github.com/talgya/civica/internal/nation"
)

// fixedSource pins every draw: zero where the range allows it, pick for the
// good/bad event coin, and a constant float for the event roll.
type fixedSource struct {
	float float64
	pick  int
}

func (s fixedSource) IntRange(lo, hi int) int {
	if lo == 0 && hi == 1 {
		return s.pick
	}
	if lo <= 0 && 0 <= hi {
		return 0
	}
	return lo
}

func (s fixedSource) Float64() float64 { return s.float }

func (s fixedSource) Fork() entropy.Source { return s }

var quietYear = fixedSource{float: 0.99}

func newTestCountry(f Founding, src entropy.Source, opts ...Option) *Country {
	opts = append([]Option{WithSource(src)}, opts...)
	return NewCountry(f, opts...)
}

func TestStarvation(t *testing.T) {
	f := DefaultFounding()
	f.Population = 200
	f.Resources.Food = 50 // 50 - 200/2 = -50 after food accounting
	c := newTestCountry(f, quietYear)

	report := c.RunTick(context.Background())

	snap := c.Snapshot()
	assert.Equal(t, 0, snap.Resources.Food)
	assert.Equal(t, 180, snap.Population)
	assert.Equal(t, 20, report.Starved)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, StarvationDescription, snap.Events[0].Description)
	assert.Equal(t, 1, snap.Events[0].Year)
	assert.Empty(t, snap.Events[0].Effect)
	assert.Equal(t, 2, snap.Year)
}

func TestStarvationOfTinyPopulation(t *testing.T) {
	f := DefaultFounding()
	f.Population = 5
	f.Resources.Food = -10
	c := newTestCountry(f, quietYear)

	report := c.RunTick(context.Background())

	assert.Equal(t, 0, report.Starved, "a tenth of 5 truncates to zero")
	assert.Equal(t, 5, c.Population())
	assert.Equal(t, 0, c.Resources().Food)
}

func TestBreakthroughEvent(t *testing.T) {
	f := DefaultFounding()
	f.Resources.Reputation = 98
	c := newTestCountry(f, fixedSource{float: 0.1, pick: 0})

	report := c.RunTick(context.Background())

	require.Len(t, report.Events, 1)
	ev := report.Events[0]
	assert.Equal(t, BreakthroughDescription, ev.Description)
	assert.Equal(t, map[string]int{"tech": 100, "reputation": 5}, ev.Effect)
	assert.Equal(t, 1, ev.Year)

	res := c.Resources()
	assert.Equal(t, 600, res.Tech)
	assert.Equal(t, 100, res.Reputation, "reputation stays clamped")
}

func TestBlightThenStarvation(t *testing.T) {
	// 10000 people eat exactly the 5000 food; the blight pushes it negative.
	c := newTestCountry(DefaultFounding(), fixedSource{float: 0.1, pick: 1})

	report := c.RunTick(context.Background())

	require.Len(t, report.Events, 2)
	assert.Equal(t, BlightDescription, report.Events[0].Description)
	assert.Equal(t, map[string]int{"food": -300}, report.Events[0].Effect)
	assert.Equal(t, StarvationDescription, report.Events[1].Description)
	assert.Equal(t, 1, report.Events[1].Year)

	assert.Equal(t, 1000, report.Starved)
	assert.Equal(t, 9000, c.Population())
	assert.Equal(t, 0, c.Resources().Food)
}

func TestNoCitiesKeepsPopulation(t *testing.T) {
	f := DefaultFounding()
	f.Resources.Food = 100000
	c := newTestCountry(f, quietYear)

	c.RunTick(context.Background())

	assert.Equal(t, 10000, c.Population())
	assert.Equal(t, 100000-5000, c.Resources().Food)
	assert.Equal(t, 2, c.Year())
}

func TestPopulationSyncsFromCities(t *testing.T) {
	c := newTestCountry(DefaultFounding(), quietYear)

	city := c.AddCity("Alpha", nation.DefaultCityPopulation, []string{"port"})
	assert.Equal(t, 11000, c.Population(), "adding a city bumps the total")
	assert.Equal(t, 50, city.Economy)

	c.RunTick(context.Background())

	snap := c.Snapshot()
	require.Len(t, snap.Cities, 1)
	assert.Equal(t, 1055, snap.Cities[0].Population)
	assert.Equal(t, 1055, snap.Population)
	// 5000 + 5*50 - 1055/2
	assert.Equal(t, 5000+250-527, snap.Resources.Food)
}

func TestLawsApplyFromNextTick(t *testing.T) {
	c := newTestCountry(DefaultFounding(), quietYear)
	c.AddCity("Alpha", 1000, nil)
	c.AddLaw("Curfew", "Everyone home by nine", map[string]int{"crime": -4, "happiness": -2, "economy": 30})

	c.RunTick(context.Background())

	city, ok := c.FindCity("Alpha")
	require.True(t, ok)
	assert.Equal(t, 6, city.Crime)
	assert.Equal(t, 48, city.Happiness)
	assert.Equal(t, 50, city.Economy, "economy impact is not part of the tick")
}

func TestYearAdvancesByOne(t *testing.T) {
	c := newTestCountry(DefaultFounding(), entropy.NewSeeded(31))
	c.AddCity("Alpha", 5000, nil)
	c.AddCity("Beta", 200, nil)

	for want := 1; want <= 50; want++ {
		require.Equal(t, want, c.Year())
		report := c.RunTick(context.Background())
		require.Equal(t, want, report.Year)
		for _, ev := range report.Events {
			require.Equal(t, want, ev.Year)
		}
	}
	assert.Equal(t, 51, c.Year())
}

func TestBoundsHoldOverManyYears(t *testing.T) {
	c := newTestCountry(DefaultFounding(), entropy.NewSeeded(77))
	c.AddCity("Boom", 20000, nil)
	c.AddCity("Bust", 50, nil)
	c.AddLaw("Chaos", "", map[string]int{"crime": 40, "happiness": -40})

	for i := 0; i < 100; i++ {
		c.RunTick(context.Background())
		snap := c.Snapshot()
		require.GreaterOrEqual(t, snap.Resources.Food, 0)
		require.GreaterOrEqual(t, snap.Resources.Reputation, 0)
		require.LessOrEqual(t, snap.Resources.Reputation, 100)
		require.GreaterOrEqual(t, snap.Population, 0)
		for _, city := range snap.Cities {
			require.GreaterOrEqual(t, city.Population, 0)
			require.True(t, city.Crime >= 0 && city.Crime <= 100)
			require.True(t, city.Happiness >= 0 && city.Happiness <= 100)
			require.True(t, city.Economy >= 0 && city.Economy <= 100)
		}
	}
}

func TestParallelUpdatesAreReproducible(t *testing.T) {
	run := func() []nation.City {
		c := newTestCountry(DefaultFounding(), entropy.NewSeeded(2025), WithWorkers(4))
		for _, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
			c.AddCity(name, 1500, nil)
		}
		for i := 0; i < 20; i++ {
			c.RunTick(context.Background())
		}
		cities := c.Snapshot().Cities
		for i := range cities {
			cities[i].ID = ""
		}
		return cities
	}

	assert.Equal(t, run(), run())
}

func TestParallelMatchesSequentialWithPinnedSource(t *testing.T) {
	build := func(workers int) *Country {
		c := newTestCountry(DefaultFounding(), quietYear, WithWorkers(workers))
		c.AddCity("A", 1000, nil)
		c.AddCity("B", 3000, nil)
		c.AddCity("C", 0, nil)
		return c
	}
	seq, par := build(1), build(3)
	seq.RunTick(context.Background())
	par.RunTick(context.Background())

	assert.Equal(t, seq.Population(), par.Population())
	assert.Equal(t, seq.Resources(), par.Resources())
}
