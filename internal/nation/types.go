// Package nation provides the entity model: cities, laws, events and the
// national resource pool, plus the per-city yearly rule.
package nation

import (
	"github.com/google/uuid"
)

// Defaults for newly founded cities and countries.
const (
	DefaultCityPopulation = 1000
	DefaultCityEconomy    = 50
	DefaultCityCrime      = 10
	DefaultCityHappiness  = 50

	DefaultCountryName        = "Civica"
	DefaultCountryDescription = "A personal, evolving fictional nation."
	DefaultCountryPopulation  = 10000
)

// NewID returns a fresh opaque entity identifier.
func NewID() string {
	return uuid.NewString()
}

// Attribute names a mutable numeric field of a city.
type Attribute string

const (
	AttrEconomy   Attribute = "economy"
	AttrCrime     Attribute = "crime"
	AttrHappiness Attribute = "happiness"
)

// City is a population center. Economy, crime and happiness stay in [0,100].
type City struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Population int      `json:"population"`
	Economy    int      `json:"economy"`
	Crime      int      `json:"crime"`
	Happiness  int      `json:"happiness"`
	Features   []string `json:"features"`
}

// NewCity founds a city with default economy, crime and happiness.
func NewCity(name string, population int, features []string) *City {
	if population < 0 {
		population = 0
	}
	return &City{
		ID:         NewID(),
		Name:       name,
		Population: population,
		Economy:    DefaultCityEconomy,
		Crime:      DefaultCityCrime,
		Happiness:  DefaultCityHappiness,
		Features:   append([]string{}, features...),
	}
}

// cityFields maps each attribute to the field it mutates.
var cityFields = map[Attribute]func(*City) *int{
	AttrEconomy:   func(c *City) *int { return &c.Economy },
	AttrCrime:     func(c *City) *int { return &c.Crime },
	AttrHappiness: func(c *City) *int { return &c.Happiness },
}

// Field returns a pointer to the named attribute, or nil if the city has none.
func (c *City) Field(attr Attribute) *int {
	f, ok := cityFields[attr]
	if !ok {
		return nil
	}
	return f(c)
}

// Clone returns a deep copy.
func (c City) Clone() City {
	c.Features = append([]string{}, c.Features...)
	return c
}

// Law is an enacted policy. Impact is open-ended, but only crime and
// happiness take part in the yearly tick.
type Law struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Impact      map[string]int `json:"impact"`
}

// NewLaw creates a law with a fresh id.
func NewLaw(title, description string, impact map[string]int) *Law {
	return &Law{
		ID:          NewID(),
		Title:       title,
		Description: description,
		Impact:      copyDeltas(impact),
	}
}

// Clone returns a deep copy.
func (l Law) Clone() Law {
	l.Impact = copyDeltas(l.Impact)
	return l
}

// Event is an entry in the national chronicle. Effect keeps the deltas as
// supplied, including names the resource pool does not know.
type Event struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Effect      map[string]int `json:"effect"`
	Year        int            `json:"year"`
}

// NewEvent creates an event tagged with the given year.
func NewEvent(description string, effect map[string]int, year int) *Event {
	return &Event{
		ID:          NewID(),
		Description: description,
		Effect:      copyDeltas(effect),
		Year:        year,
	}
}

// Clone returns a deep copy.
func (e Event) Clone() Event {
	e.Effect = copyDeltas(e.Effect)
	return e
}

func copyDeltas(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Clamp constrains v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
