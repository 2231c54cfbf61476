package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Params holds the free-form parameters of a circuit. Values are opaque strings;
// the typed accessors report missing keys instead of deferring the failure.
type Params map[string]string

// Get returns the value for key and whether it is present.
func (p Params) Get(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Bool interprets the value for key as a boolean flag. The second result is
// false when the key is missing or the value is not a recognised boolean.
func (p Params) Bool(key string) (bool, bool) {
	v, ok := p[key]
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// Float parses the value for key as a float64.
func (p Params) Float(key string) (float64, error) {
	v, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("parameter %q not set", key)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %q: %w", key, err)
	}
	return f, nil
}

// Keys returns the parameter keys in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (p Params) Clone() Params {
	c := make(Params, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Circuit is a test structure on the chip: a design-space Location and its parameters.
// Within a CircuitMap a circuit is identified by its Location.
type Circuit struct {
	Loc    Location `json:"loc"`
	Params Params   `json:"params"`
}

// NewCircuit creates a circuit with a private copy of params.
func NewCircuit(loc Location, params Params) *Circuit {
	if params == nil {
		params = Params{}
	}
	return &Circuit{Loc: loc, Params: params.Clone()}
}

// Param is a convenience accessor for c.Params.Get.
func (c *Circuit) Param(key string) (string, bool) {
	return c.Params.Get(key)
}

// Clone returns a deep copy of the circuit.
func (c *Circuit) Clone() *Circuit {
	return &Circuit{Loc: c.Loc, Params: c.Params.Clone()}
}

// matchesAll reports whether the circuit has every key in pred with an equal value.
func (c *Circuit) matchesAll(pred map[string]string) bool {
	for k, v := range pred {
		got, ok := c.Params[k]
		if !ok || got != v {
			return false
		}
	}
	return true
}

// String renders the circuit in catalog line format: "(x,y) k1=v1, k2=v2".
func (c *Circuit) String() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(formatFloat(c.Loc.X))
	b.WriteString(",")
	b.WriteString(formatFloat(c.Loc.Y))
	b.WriteString(")")
	for i, k := range c.Params.Keys() {
		if i == 0 {
			b.WriteString(" ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(c.Params[k])
	}
	return b.String()
}
