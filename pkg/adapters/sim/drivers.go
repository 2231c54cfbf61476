package sim

import (
	"fmt"
	"math"

	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/ports"
	"github.com/aretw0/gator/pkg/registry"
)

const (
	MotorDriver = "sim-linear"
	DAQDriver   = "sim-daq"
)

// MotorParams are the profile parameters of a "sim-linear" axis.
type MotorParams struct {
	Backlash   float64 `mapstructure:"backlash"`
	Min        float64 `mapstructure:"min"`
	Max        float64 `mapstructure:"max"`
	ContTravel float64 `mapstructure:"cont_travel"`
}

// DAQParams are the profile parameters of a "sim-daq" unit. The signal has a
// Gaussian peak at every entry of Peaks, in physical stage coordinates.
type DAQParams struct {
	Peaks       []domain.Location `mapstructure:"peaks"`
	Width       float64           `mapstructure:"width"`
	Peak        float64           `mapstructure:"peak"`
	Floor       float64           `mapstructure:"floor"`
	TraceLength int               `mapstructure:"trace_length"`
}

// Peaks returns a signal with one Gaussian per location; the strongest wins.
func Peaks(width, peak, floor float64, locs ...domain.Location) SignalFunc {
	return func(x, y float64) float64 {
		best := 0.0
		for _, l := range locs {
			best = math.Max(best, Gaussian(l.X, l.Y, width, peak)(x, y))
		}
		return floor + best
	}
}

// Register adds the simulated drivers to r.
func Register(r *registry.Registry) {
	r.RegisterMotor(MotorDriver, func(params map[string]any) (ports.Motor, error) {
		p := MotorParams{ContTravel: 1}
		if err := registry.Decode(params, &p); err != nil {
			return nil, err
		}
		m := NewMotor(MotorDriver)
		m.Backlash, m.Min, m.Max, m.ContTravel = p.Backlash, p.Min, p.Max, p.ContTravel
		return m, nil
	})

	r.RegisterDAQ(DAQDriver, func(params map[string]any, axes map[domain.Axis]ports.Motor) (ports.DataAcquisitionUnit, error) {
		p := DAQParams{Width: 0.01, Peak: 1, TraceLength: 16}
		if err := registry.Decode(params, &p); err != nil {
			return nil, err
		}
		if p.Width <= 0 {
			return nil, fmt.Errorf("sim daq: width must be positive, got %g", p.Width)
		}
		x, err := locator(axes, domain.AxisX)
		if err != nil {
			return nil, err
		}
		y, err := locator(axes, domain.AxisY)
		if err != nil {
			return nil, err
		}
		d := NewDAQ(x, y, Peaks(p.Width, p.Peak, p.Floor, p.Peaks...))
		d.TraceLength = p.TraceLength
		return d, nil
	})
}

func locator(axes map[domain.Axis]ports.Motor, axis domain.Axis) (Locator, error) {
	m, ok := axes[axis]
	if !ok {
		return nil, fmt.Errorf("sim daq: %w: %s", domain.ErrAxisUnavailable, axis)
	}
	l, ok := m.(Locator)
	if !ok {
		return nil, fmt.Errorf("sim daq: axis %s is not simulated", axis)
	}
	return l, nil
}
