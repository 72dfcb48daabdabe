// Package engine owns the country aggregate and the yearly tick that
// advances it.
package engine

import (
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/talgya/civica/internal/entropy"
	"github.com/talgya/civica/internal/nation"
	"github.com/talgya/civica/internal/telemetry"
)

// Founding describes a newly created country.
type Founding struct {
	Name        string
	Description string
	Population  int
	Resources   nation.Resources
}

// DefaultFounding returns the starting state of a fresh nation.
func DefaultFounding() Founding {
	return Founding{
		Name:        nation.DefaultCountryName,
		Description: nation.DefaultCountryDescription,
		Population:  nation.DefaultCountryPopulation,
		Resources:   nation.DefaultResources(),
	}
}

// Country is the aggregate root: it exclusively owns every city, law and
// event. All mutations take the write lock, so one writer runs at a time.
type Country struct {
	mu sync.RWMutex

	name        string
	description string
	population  int
	year        int
	resources   nation.Resources

	cities []*nation.City
	laws   []nation.Law   // append-only
	events []nation.Event // append-only

	src     entropy.Source
	workers int
	tracer  trace.Tracer
}

// Option configures a Country.
type Option func(*Country)

// WithSource sets the randomness source used by ticks.
func WithSource(src entropy.Source) Option {
	return func(c *Country) {
		if src != nil {
			c.src = src
		}
	}
}

// WithWorkers updates cities on n goroutines when the source can fork.
func WithWorkers(n int) Option {
	return func(c *Country) { c.workers = n }
}

// WithTracer overrides the tracer used for tick spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Country) {
		if t != nil {
			c.tracer = t
		}
	}
}

// NewCountry founds a country in year 1.
func NewCountry(f Founding, opts ...Option) *Country {
	c := &Country{
		name:        f.Name,
		description: f.Description,
		population:  f.Population,
		year:        1,
		resources:   f.Resources,
	}
	c.apply(opts)
	return c
}

// FromSnapshot rebuilds a country from a saved snapshot. Entity ids are kept;
// records without one get a fresh id.
func FromSnapshot(s nation.Snapshot, opts ...Option) *Country {
	s = s.Clone()
	if n := s.AssignMissingIDs(); n > 0 {
		slog.Debug("assigned ids to restored records", "count", n)
	}
	if s.Year < 1 {
		s.Year = 1
	}

	c := &Country{
		name:        s.Name,
		description: s.Description,
		population:  s.Population,
		year:        s.Year,
		resources:   s.Resources,
		laws:        s.Laws,
		events:      s.Events,
	}
	c.cities = make([]*nation.City, len(s.Cities))
	for i := range s.Cities {
		c.cities[i] = &s.Cities[i]
	}
	c.apply(opts)
	return c
}

func (c *Country) apply(opts []Option) {
	c.src = entropy.NewSeeded(0)
	c.tracer = telemetry.Tracer("engine")
	for _, opt := range opts {
		opt(c)
	}
}

// AddCity founds a city and adds its population to the national total.
// The national figure is only recomputed from cities during a tick.
func (c *Country) AddCity(name string, population int, features []string) nation.City {
	c.mu.Lock()
	defer c.mu.Unlock()

	city := nation.NewCity(name, population, features)
	c.cities = append(c.cities, city)
	c.population += city.Population

	slog.Info("city founded", "name", city.Name, "population", city.Population, "year", c.year)
	return city.Clone()
}

// AddLaw enacts a law. It takes effect from the next tick.
func (c *Country) AddLaw(title, description string, impact map[string]int) nation.Law {
	c.mu.Lock()
	defer c.mu.Unlock()

	law := nation.NewLaw(title, description, impact)
	c.laws = append(c.laws, *law)

	slog.Info("law enacted", "title", law.Title, "year", c.year)
	return law.Clone()
}

// AddEvent records an event for the current year and applies its effect to
// the resource pool. Unknown resource names are ignored.
func (c *Country) AddEvent(description string, effect map[string]int) nation.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	ev := c.recordEvent(description, effect)
	return ev.Clone()
}

// recordEvent appends an event and applies its effect. Caller holds the lock.
func (c *Country) recordEvent(description string, effect map[string]int) nation.Event {
	ev := nation.NewEvent(description, effect, c.year)
	c.events = append(c.events, *ev)
	if ignored := c.resources.Apply(ev.Effect); len(ignored) > 0 {
		slog.Debug("event effect keys ignored", "event", ev.Description, "keys", ignored)
	}
	slog.Debug("event", "year", ev.Year, "description", ev.Description)
	return *ev
}

// Snapshot returns a detached copy of the whole country.
func (c *Country) Snapshot() nation.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := nation.Snapshot{
		Name:        c.name,
		Description: c.description,
		Population:  c.population,
		Year:        c.year,
		Resources:   c.resources,
		Cities:      make([]nation.City, len(c.cities)),
		Laws:        c.laws,
		Events:      c.events,
	}
	for i, city := range c.cities {
		s.Cities[i] = *city
	}
	return s.Clone()
}

// Name returns the country name.
func (c *Country) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// Year returns the year the next tick will simulate.
func (c *Country) Year() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.year
}

// Population returns the national population.
func (c *Country) Population() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.population
}

// Resources returns a copy of the resource pool.
func (c *Country) Resources() nation.Resources {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resources
}

// FindCity looks up a city by name (case-sensitive).
func (c *Country) FindCity(name string) (nation.City, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, city := range c.cities {
		if city.Name == name {
			return city.Clone(), true
		}
	}
	return nation.City{}, false
}
