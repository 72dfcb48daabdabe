package nation

// Snapshot is a detached copy of a whole country, the shape persisted to
// save documents and served by the API.
type Snapshot struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Population  int       `json:"population"`
	Year        int       `json:"year"`
	Resources   Resources `json:"resources"`
	Cities      []City    `json:"cities"`
	Laws        []Law     `json:"laws"`
	Events      []Event   `json:"events"`
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Cities = make([]City, len(s.Cities))
	for i, c := range s.Cities {
		out.Cities[i] = c.Clone()
	}
	out.Laws = make([]Law, len(s.Laws))
	for i, l := range s.Laws {
		out.Laws[i] = l.Clone()
	}
	out.Events = make([]Event, len(s.Events))
	for i, e := range s.Events {
		out.Events[i] = e.Clone()
	}
	return out
}

// AssignMissingIDs gives a fresh id to every record that arrived without one.
// Existing ids are kept.
func (s *Snapshot) AssignMissingIDs() int {
	n := 0
	for i := range s.Cities {
		if s.Cities[i].ID == "" {
			s.Cities[i].ID = NewID()
			n++
		}
	}
	for i := range s.Laws {
		if s.Laws[i].ID == "" {
			s.Laws[i].ID = NewID()
			n++
		}
	}
	for i := range s.Events {
		if s.Events[i].ID == "" {
			s.Events[i].ID = NewID()
			n++
		}
	}
	return n
}

// RecentEvents returns up to n of the latest events, oldest first.
func (s Snapshot) RecentEvents(n int) []Event {
	if n <= 0 || len(s.Events) == 0 {
		return nil
	}
	start := len(s.Events) - n
	if start < 0 {
		start = 0
	}
	return s.Events[start:]
}
