package config

import (
	"github.com/aretw0/gator/pkg/adapters/sim"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/registry"
)

// DefaultRegistry returns a registry holding the built-in drivers.
func DefaultRegistry() *registry.Registry {
	r := registry.NewRegistry()
	sim.Register(r)
	return r
}

// SimProfile returns a profile that runs entirely on simulated drivers, with a
// signal peak at each of peaks (stage coordinates).
func SimProfile(name string, peaks ...domain.Location) *Profile {
	linear := func() Driver {
		return Driver{
			Driver:     sim.MotorDriver,
			Parameters: map[string]any{"backlash": 0.001, "min": -100, "max": 100},
			Backlash:   0.001,
		}
	}
	return &Profile{
		Name: name,
		Axes: map[domain.Axis]Driver{
			domain.AxisX: linear(),
			domain.AxisY: linear(),
			domain.AxisZ: {Driver: sim.MotorDriver},
		},
		DAQ: &Driver{
			Driver:     sim.DAQDriver,
			Parameters: map[string]any{"peaks": peaks, "width": 0.01, "floor": 0.001},
		},
		LoadedPosition:   domain.Position{domain.AxisZ: 0},
		UnloadedPosition: domain.Position{domain.AxisZ: 10},
		Selection:        "flag",
		Scan:             ScanDefaults{SettleSeconds: 0.001},
	}
}
