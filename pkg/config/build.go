package config

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/gator/pkg/calibration"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/ports"
	"github.com/aretw0/gator/pkg/registry"
	"github.com/aretw0/gator/pkg/stage"
)

// Hardware is what a profile builds.
type Hardware struct {
	Stage *stage.Stage
	DAQ   ports.DataAcquisitionUnit
	// Backlash is the largest compensation configured on the planar axes,
	// used by scans when approaching a point.
	Backlash float64
}

// Build constructs the profile's drivers and assembles the stage.
func (p *Profile) Build(reg *registry.Registry, tr *calibration.Transformer, logger *slog.Logger) (*Hardware, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	raw := make(map[domain.Axis]ports.Motor, len(p.Axes))
	opts := []stage.Option{stage.WithLoadPositions(p.LoadedPosition, p.UnloadedPosition)}
	if tr != nil {
		opts = append(opts, stage.WithTransformer(tr))
	}
	if logger != nil {
		opts = append(opts, stage.WithLogger(logger))
	}

	hw := &Hardware{}
	for _, a := range domain.Axes {
		d, ok := p.Axes[a]
		if !ok {
			continue
		}
		m, err := reg.Motor(d.Driver, d.Parameters)
		if err != nil {
			return nil, fmt.Errorf("axis %s: %w", a, err)
		}
		raw[a] = m
		if d.Backlash > 0 {
			m = stage.WithBacklash(m, d.Backlash)
			if a == domain.AxisX || a == domain.AxisY {
				hw.Backlash = max(hw.Backlash, d.Backlash)
			}
		}
		opts = append(opts, stage.WithAxis(a, m))
	}

	if p.DAQ != nil {
		daq, err := reg.DAQ(p.DAQ.Driver, p.DAQ.Parameters, raw)
		if err != nil {
			return nil, fmt.Errorf("daq: %w", err)
		}
		hw.DAQ = daq
	}
	hw.Stage = stage.New(opts...)
	return hw, nil
}
