package domain

import (
	"math"
	"strconv"
)

// Location is an (x, y) coordinate pair. It is a value type and never mutated in place.
// Locations have no ordering.
type Location struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
}

// Loc is shorthand for Location{X: x, Y: y}.
func Loc(x, y float64) Location {
	return Location{X: x, Y: y}
}

// Add returns the component-wise sum of two locations.
func (l Location) Add(o Location) Location {
	return Location{X: l.X + o.X, Y: l.Y + o.Y}
}

// Offset returns l shifted by (dx, dy).
func (l Location) Offset(dx, dy float64) Location {
	return Location{X: l.X + dx, Y: l.Y + dy}
}

// Equal reports exact equality with another Location.
func (l Location) Equal(o Location) bool {
	return l.X == o.X && l.Y == o.Y
}

// EqualPair reports exact equality with a numeric pair.
func (l Location) EqualPair(p [2]float64) bool {
	return l.X == p[0] && l.Y == p[1]
}

// Pair returns the location as a numeric pair.
func (l Location) Pair() [2]float64 {
	return [2]float64{l.X, l.Y}
}

// Distance returns the euclidean distance between two locations.
func (l Location) Distance(o Location) float64 {
	return math.Hypot(l.X-o.X, l.Y-o.Y)
}

// String renders the location as it appears in catalog files.
func (l Location) String() string {
	return "(" + formatFloat(l.X) + ", " + formatFloat(l.Y) + ")"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
