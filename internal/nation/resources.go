package nation

// Resource names an entry of the national resource pool.
type Resource string

const (
	ResFood       Resource = "food"
	ResMoney      Resource = "money"
	ResTech       Resource = "tech"
	ResReputation Resource = "reputation"
)

// Reputation bounds.
const (
	MinReputation = 0
	MaxReputation = 100
)

// Resources is the national stockpile. Reputation stays in [0,100]; the
// others are unbounded.
type Resources struct {
	Food       int `json:"food"`
	Money      int `json:"money"`
	Tech       int `json:"tech"`
	Reputation int `json:"reputation"`
}

// DefaultResources is the stockpile of a newly founded country.
func DefaultResources() Resources {
	return Resources{Food: 5000, Money: 10000, Tech: 500, Reputation: 50}
}

var resourceFields = map[Resource]func(*Resources) *int{
	ResFood:       func(r *Resources) *int { return &r.Food },
	ResMoney:      func(r *Resources) *int { return &r.Money },
	ResTech:       func(r *Resources) *int { return &r.Tech },
	ResReputation: func(r *Resources) *int { return &r.Reputation },
}

// Get returns the value of a named resource and whether it exists.
func (r *Resources) Get(name Resource) (int, bool) {
	f, ok := resourceFields[name]
	if !ok {
		return 0, false
	}
	return *f(r), true
}

// Add applies a delta to one resource. Unknown names are ignored and
// reported false.
func (r *Resources) Add(name Resource, delta int) bool {
	f, ok := resourceFields[name]
	if !ok {
		return false
	}
	p := f(r)
	*p += delta
	if name == ResReputation {
		*p = Clamp(*p, MinReputation, MaxReputation)
	}
	return true
}

// Apply adds every recognised entry of effect and returns the keys it ignored.
func (r *Resources) Apply(effect map[string]int) []string {
	var ignored []string
	for k, v := range effect {
		if !r.Add(Resource(k), v) {
			ignored = append(ignored, k)
		}
	}
	return ignored
}
