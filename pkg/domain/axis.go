package domain

import "fmt"

// Axis names one motorized degree of freedom of the stage.
type Axis string

const (
	AxisX     Axis = "x"
	AxisY     Axis = "y"
	AxisZ     Axis = "z"
	AxisTheta Axis = "theta"
	AxisPhi   Axis = "phi"
	AxisPsi   Axis = "psi"
)

// Axes lists every axis in canonical order. Locks on several axes are taken in this order.
var Axes = []Axis{AxisX, AxisY, AxisZ, AxisTheta, AxisPhi, AxisPsi}

// ParseAxis validates an axis name.
func ParseAxis(s string) (Axis, error) {
	for _, a := range Axes {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown axis %q", s)
}

// Direction is the sense of a continuous move.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Position addresses any subset of the stage axes. Axes absent from the map are left untouched.
type Position map[Axis]float64

// XY builds a Position for the two planar axes.
func XY(x, y float64) Position {
	return Position{AxisX: x, AxisY: y}
}
