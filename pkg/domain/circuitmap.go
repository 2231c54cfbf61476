package domain

// CircuitMap is an ordered catalog of circuits. Order matters for serialization
// only. Query results share their *Circuit values with the receiver, so
// UpdateParams on a filtered map stamps the underlying circuits; use Clone for
// an independent copy.
type CircuitMap struct {
	circuits []*Circuit
}

// NewCircuitMap creates a map over the given circuits, preserving their order.
func NewCircuitMap(circuits ...*Circuit) *CircuitMap {
	m := &CircuitMap{circuits: make([]*Circuit, 0, len(circuits))}
	m.circuits = append(m.circuits, circuits...)
	return m
}

// Len returns the number of circuits.
func (m *CircuitMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.circuits)
}

// At returns the i-th circuit in insertion order.
func (m *CircuitMap) At(i int) *Circuit {
	return m.circuits[i]
}

// Circuits returns the circuits in insertion order. The slice is a copy; the circuits are not.
func (m *CircuitMap) Circuits() []*Circuit {
	out := make([]*Circuit, len(m.circuits))
	copy(out, m.circuits)
	return out
}

// Append adds circuits to the end of the map. It does not check for duplicate locations.
func (m *CircuitMap) Append(circuits ...*Circuit) {
	m.circuits = append(m.circuits, circuits...)
}

// Find returns the circuit at loc.
func (m *CircuitMap) Find(loc Location) (*Circuit, error) {
	for _, c := range m.circuits {
		if c.Loc.Equal(loc) {
			return c, nil
		}
	}
	return nil, ErrCircuitNotFound
}

// FindBy returns the first circuit whose parameter key equals value.
func (m *CircuitMap) FindBy(key, value string) (*Circuit, error) {
	for _, c := range m.circuits {
		if v, ok := c.Params[key]; ok && v == value {
			return c, nil
		}
	}
	return nil, ErrCircuitNotFound
}

// Contains reports whether a circuit exists at loc.
func (m *CircuitMap) Contains(loc Location) bool {
	_, err := m.Find(loc)
	return err == nil
}

// Clone returns a deep copy of the map and its circuits.
func (m *CircuitMap) Clone() *CircuitMap {
	out := &CircuitMap{circuits: make([]*Circuit, len(m.circuits))}
	for i, c := range m.circuits {
		out.circuits[i] = c.Clone()
	}
	return out
}

// FilterBy returns the circuits that have every predicate key with a string-equal value.
// A circuit missing any predicate key is excluded. An empty predicate matches everything.
func (m *CircuitMap) FilterBy(pred map[string]string) *CircuitMap {
	out := &CircuitMap{}
	for _, c := range m.circuits {
		if c.matchesAll(pred) {
			out.circuits = append(out.circuits, c)
		}
	}
	return out
}

// FilterOut returns the circuits not excluded by pred. A circuit is excluded
// only when it has every predicate key and at least one of them matches; a
// circuit missing any predicate key is always retained. With more than one
// predicate this is not the complement of FilterBy.
func (m *CircuitMap) FilterOut(pred map[string]string) *CircuitMap {
	out := &CircuitMap{}
	for _, c := range m.circuits {
		if !c.excludedBy(pred) {
			out.circuits = append(out.circuits, c)
		}
	}
	return out
}

func (c *Circuit) excludedBy(pred map[string]string) bool {
	if len(pred) == 0 {
		return false
	}
	matched := false
	for k, v := range pred {
		got, ok := c.Params[k]
		if !ok {
			return false
		}
		if got == v {
			matched = true
		}
	}
	return matched
}

// Merge returns the union of m and other by Location. Circuits of m come
// first and win on conflict, followed by the circuits of other not present in m.
// Neither operand is modified.
func (m *CircuitMap) Merge(other *CircuitMap) *CircuitMap {
	out := &CircuitMap{circuits: make([]*Circuit, 0, m.Len()+other.Len())}
	seen := make(map[Location]struct{}, m.Len()+other.Len())
	add := func(cs []*Circuit) {
		for _, c := range cs {
			if _, dup := seen[c.Loc]; dup {
				continue
			}
			seen[c.Loc] = struct{}{}
			out.circuits = append(out.circuits, c)
		}
	}
	if m != nil {
		add(m.circuits)
	}
	if other != nil {
		add(other.circuits)
	}
	return out
}

// UpdateParams writes every key/value pair of changes onto every circuit, in place.
func (m *CircuitMap) UpdateParams(changes map[string]string) {
	for _, c := range m.circuits {
		if c.Params == nil {
			c.Params = Params{}
		}
		for k, v := range changes {
			c.Params[k] = v
		}
	}
}

// Translate shifts every circuit location by (dx, dy), in place.
func (m *CircuitMap) Translate(dx, dy float64) {
	for _, c := range m.circuits {
		c.Loc = c.Loc.Offset(dx, dy)
	}
}

// Flagged returns the circuits whose key parameter is the literal "True".
func (m *CircuitMap) Flagged(key string) *CircuitMap {
	return m.FilterBy(map[string]string{key: TrueValue})
}

// Bounds returns the smallest and largest x and y over all circuits.
// ok is false for an empty map.
func (m *CircuitMap) Bounds() (lo, hi Location, ok bool) {
	if m.Len() == 0 {
		return Location{}, Location{}, false
	}
	lo, hi = m.circuits[0].Loc, m.circuits[0].Loc
	for _, c := range m.circuits[1:] {
		lo.X = min(lo.X, c.Loc.X)
		lo.Y = min(lo.Y, c.Loc.Y)
		hi.X = max(hi.X, c.Loc.X)
		hi.Y = max(hi.Y, c.Loc.Y)
	}
	return lo, hi, true
}
