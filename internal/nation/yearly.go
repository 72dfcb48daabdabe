package nation

import (
	"github.com/talgya/civica/internal/entropy"
)

// Attribute bounds for cities.
const (
	MinAttribute = 0
	MaxAttribute = 100
)

// LawEffects is the summed impact of every enacted law on the attributes
// a tick applies to cities. It always holds exactly crime and happiness.
type LawEffects map[Attribute]int

// tickAttributes are the law impact keys the yearly tick honours.
var tickAttributes = []Attribute{AttrCrime, AttrHappiness}

// AggregateLawEffects sums crime and happiness impacts across laws.
// Other impact keys are ignored.
func AggregateLawEffects(laws []Law) LawEffects {
	effects := make(LawEffects, len(tickAttributes))
	for _, attr := range tickAttributes {
		effects[attr] = 0
	}
	for _, law := range laws {
		for k, v := range law.Impact {
			attr := Attribute(k)
			if _, ok := effects[attr]; ok {
				effects[attr] += v
			}
		}
	}
	return effects
}

// YearlyUpdate advances one city by a year: law effects, economic growth,
// happiness and crime drift, then population growth from the updated values.
func (c *City) YearlyUpdate(effects LawEffects, src entropy.Source) {
	for attr, delta := range effects {
		if f := c.Field(attr); f != nil {
			*f = Clamp(*f+delta, MinAttribute, MaxAttribute)
		}
	}

	c.Economy = Clamp(c.Economy+src.IntRange(0, 2), MinAttribute, MaxAttribute)
	c.Happiness = Clamp(c.Happiness+src.IntRange(-1, 2), MinAttribute, MaxAttribute)
	c.Crime = Clamp(c.Crime+src.IntRange(-1, 1), MinAttribute, MaxAttribute)

	c.Population += PopulationGrowth(c.Population, c.Economy, c.Crime)
	if c.Population < 0 {
		c.Population = 0
	}
}

// PopulationGrowth is population × (0.01 + economy/1000 − crime/2000),
// truncated toward zero. Computed in integers over a 2000 denominator.
func PopulationGrowth(population, economy, crime int) int {
	return population * (20 + 2*economy - crime) / 2000
}
