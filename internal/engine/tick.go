package engine

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/talgya/civica/internal/entropy"
	"github.com/talgya/civica/internal/nation"
)

// Random event tuning.
const (
	EventChance = 0.3

	FoodPerEconomy = 5

	BreakthroughDescription = "A scientific breakthrough boosts tech!"
	BlightDescription       = "A crop blight reduces food stores!"
	StarvationDescription   = "Starvation strikes the nation!"
)

// TickReport summarises one simulated year.
type TickReport struct {
	Year       int              `json:"year"` // year that was simulated
	Events     []nation.Event   `json:"events"`
	Starved    int              `json:"starved"`
	Population int              `json:"population"`
	Resources  nation.Resources `json:"resources"`
}

// RunTick simulates the current year and advances the calendar by one.
func (c *Country) RunTick(ctx context.Context) TickReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, span := c.tracer.Start(ctx, "country.tick", trace.WithAttributes(
		attribute.Int("year", c.year),
		attribute.Int("cities", len(c.cities)),
		attribute.Int("laws", len(c.laws)),
	))
	defer span.End()

	report := TickReport{Year: c.year}
	firstEvent := len(c.events)

	effects := nation.AggregateLawEffects(c.laws)
	c.updateCities(effects)
	c.syncPopulation()
	c.accountFood()
	c.driftResources()
	c.rollEvent()
	report.Starved = c.checkStarvation()

	for _, ev := range c.events[firstEvent:] {
		report.Events = append(report.Events, ev.Clone())
		span.AddEvent(ev.Description)
	}

	c.year++

	report.Population = c.population
	report.Resources = c.resources
	span.SetAttributes(
		attribute.Int("population", c.population),
		attribute.Int("food", c.resources.Food),
		attribute.Int("starved", report.Starved),
	)

	slog.Info("year simulated",
		"year", report.Year,
		"population", c.population,
		"food", c.resources.Food,
		"money", c.resources.Money,
		"tech", c.resources.Tech,
		"reputation", c.resources.Reputation,
		"events", len(report.Events),
		"starved", report.Starved,
	)
	return report
}

// updateCities applies the yearly rule to every city. With more than one
// worker and a forkable source, cities run concurrently on child sources
// forked in insertion order; the wait is the barrier before population sync.
func (c *Country) updateCities(effects nation.LawEffects) {
	forker, canFork := c.src.(entropy.Forker)
	if c.workers <= 1 || !canFork || len(c.cities) < 2 {
		for _, city := range c.cities {
			city.YearlyUpdate(effects, c.src)
		}
		return
	}

	sources := make([]entropy.Source, len(c.cities))
	for i := range c.cities {
		sources[i] = forker.Fork()
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < c.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				c.cities[i].YearlyUpdate(effects, sources[i])
			}
		}()
	}
	for i := range c.cities {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// syncPopulation recomputes the national total from the cities. A country
// without cities keeps its previous figure.
func (c *Country) syncPopulation() {
	if len(c.cities) == 0 {
		return
	}
	total := 0
	for _, city := range c.cities {
		total += city.Population
	}
	c.population = total
}

// accountFood adds production from city economies and subtracts what the
// population eats. Food may go negative here; starvation corrects it.
func (c *Country) accountFood() {
	economy := 0
	for _, city := range c.cities {
		economy += city.Economy
	}
	produced := economy * FoodPerEconomy
	consumed := c.population / 2
	c.resources.Food += produced - consumed
}

func (c *Country) driftResources() {
	c.resources.Money += c.src.IntRange(-500, 900)
	c.resources.Tech += c.src.IntRange(0, 30)
	c.resources.Add(nation.ResReputation, c.src.IntRange(-2, 3))
}

// rollEvent fires a breakthrough or a blight with probability EventChance.
func (c *Country) rollEvent() {
	if c.src.Float64() >= EventChance {
		return
	}
	if c.src.IntRange(0, 1) == 0 {
		c.recordEvent(BreakthroughDescription, map[string]int{
			string(nation.ResTech):       100,
			string(nation.ResReputation): 5,
		})
		return
	}
	c.recordEvent(BlightDescription, map[string]int{
		string(nation.ResFood): -300,
	})
}

// checkStarvation kills a tenth of the population when food ran out, resets
// food to zero and chronicles it. Returns the number of people lost.
func (c *Country) checkStarvation() int {
	if c.resources.Food >= 0 {
		return 0
	}
	lost := c.population / 10
	if lost > c.population {
		lost = c.population
	}
	c.population -= lost
	c.resources.Food = 0
	c.recordEvent(StarvationDescription, map[string]int{})

	slog.Warn("starvation", "year", c.year, "lost", lost, "population", c.population)
	return lost
}
