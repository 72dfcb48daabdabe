package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/civica/internal/entropy"
	"github.com/talgya/civica/internal/nation"
)

func TestNewCountryDefaults(t *testing.T) {
	c := NewCountry(DefaultFounding())
	snap := c.Snapshot()

	assert.Equal(t, "Civica", snap.Name)
	assert.Equal(t, "A personal, evolving fictional nation.", snap.Description)
	assert.Equal(t, 10000, snap.Population)
	assert.Equal(t, 1, snap.Year)
	assert.Equal(t, 5000, snap.Resources.Food)
	assert.Equal(t, 10000, snap.Resources.Money)
	assert.Equal(t, 500, snap.Resources.Tech)
	assert.Equal(t, 50, snap.Resources.Reputation)
	assert.Empty(t, snap.Cities)
}

func TestAddEventAppliesEffect(t *testing.T) {
	c := NewCountry(DefaultFounding())

	ev := c.AddEvent("Harvest festival", map[string]int{"food": 250, "money": -100, "morale": 3})

	assert.Equal(t, 1, ev.Year)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, 3, ev.Effect["morale"], "effect is stored as given")

	res := c.Resources()
	assert.Equal(t, 5250, res.Food)
	assert.Equal(t, 9900, res.Money)

	snap := c.Snapshot()
	require.Len(t, snap.Events, 1)
	assert.Equal(t, "Harvest festival", snap.Events[0].Description)
}

func TestAddEventTaggedWithCurrentYear(t *testing.T) {
	c := NewCountry(DefaultFounding(), WithSource(quietYear))
	c.RunTick(context.Background())
	c.RunTick(context.Background())

	ev := c.AddEvent("Comet sighted", nil)
	assert.Equal(t, 3, ev.Year)
	assert.NotNil(t, ev.Effect)
}

func TestAddLawKeepsImpactCopy(t *testing.T) {
	c := NewCountry(DefaultFounding())
	impact := map[string]int{"crime": -2}
	law := c.AddLaw("Patrols", "More guards", impact)
	impact["crime"] = 50

	assert.Equal(t, -2, law.Impact["crime"])
	assert.Equal(t, -2, c.Snapshot().Laws[0].Impact["crime"])
}

func TestSnapshotIsDetached(t *testing.T) {
	c := NewCountry(DefaultFounding())
	c.AddCity("Alpha", 100, []string{"park"})

	snap := c.Snapshot()
	snap.Cities[0].Population = 0
	snap.Cities[0].Features[0] = "factory"

	city, ok := c.FindCity("Alpha")
	require.True(t, ok)
	assert.Equal(t, 100, city.Population)
	assert.Equal(t, []string{"park"}, city.Features)

	_, ok = c.FindCity("Nowhere")
	assert.False(t, ok)
}

func TestFromSnapshotRoundTrip(t *testing.T) {
	c := NewCountry(DefaultFounding(), WithSource(entropy.NewSeeded(8)))
	c.AddCity("Alpha", 1200, []string{"port", "port"})
	c.AddLaw("Tax relief", "", map[string]int{"happiness": 2})
	c.AddEvent("Gold found", map[string]int{"money": 900})
	for i := 0; i < 5; i++ {
		c.RunTick(context.Background())
	}

	snap := c.Snapshot()
	restored := FromSnapshot(snap)

	assert.Equal(t, snap, restored.Snapshot())
}

func TestFromSnapshotFillsMissingIDs(t *testing.T) {
	snap := NewCountry(DefaultFounding()).Snapshot()
	snap.Year = 0
	snap.Cities = append(snap.Cities, nation.City{Name: "Ghost", Population: 10})

	restored := FromSnapshot(snap).Snapshot()
	assert.Equal(t, 1, restored.Year)
	assert.NotEmpty(t, restored.Cities[0].ID)
}

func TestClockRunsUntilCancelled(t *testing.T) {
	c := NewCountry(DefaultFounding(), WithSource(quietYear))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := NewClock(5*time.Millisecond, func(ctx context.Context) {
		c.RunTick(ctx)
	})

	done := make(chan struct{})
	go func() {
		clock.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return clock.Years() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("clock did not stop after cancel")
	}
	assert.Equal(t, int(clock.Years())+1, c.Year())
}

func TestClockSpeed(t *testing.T) {
	clock := NewClock(0, nil)
	assert.Equal(t, time.Minute, clock.Interval)
	assert.Equal(t, 1.0, clock.Speed())
	clock.SetSpeed(0)
	assert.Equal(t, 0.0, clock.Speed())
}
