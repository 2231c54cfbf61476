package scan

import (
	"context"
	"time"

	"github.com/aretw0/gator/pkg/domain"
)

const (
	DefaultSpan       = 0.06
	DefaultCoarseStep = 0.005
	DefaultFineSpan   = 0.025
)

// AutoRequest describes a coarse box scan followed by a fine line scan per axis.
// Center, Span and CoarseStep are in the Coords system; FineSpan and FineStep
// are always motor units.
type AutoRequest struct {
	Center          domain.Location
	Span            float64
	CoarseStep      float64
	FineSpan        float64
	FineStep        float64
	MaxNonImproving int
	Settle          time.Duration
	Coords          Coords
}

func (r *AutoRequest) applyDefaults() {
	if r.Span == 0 {
		r.Span = DefaultSpan
	}
	if r.CoarseStep == 0 {
		r.CoarseStep = DefaultCoarseStep
	}
	if r.FineSpan == 0 {
		r.FineSpan = DefaultFineSpan
	}
	if r.FineStep == 0 {
		r.FineStep = DefaultLineStep
	}
	if r.MaxNonImproving == 0 {
		r.MaxNonImproving = DefaultMaxNonImproving
	}
}

// AutoResult is the outcome of an auto scan.
type AutoResult struct {
	// Location is the refined stage position the axes were left at.
	Location domain.Location
	Value    float64
	Coarse   BoxResult
}

// AutoScan runs BoxScan over Center ± Span/2 and moves to its peak, then
// LineScan on x from peak.x - FineSpan/2 and on y from peak.y - FineSpan/2,
// and finally commands the stage to the refined (x, y).
func (o *Optimizer) AutoScan(ctx context.Context, req AutoRequest) (AutoResult, error) {
	var res AutoResult
	req.applyDefaults()

	x, y := Window(req.Center, req.Span, req.Span)
	coarse, err := o.BoxScan(ctx, BoxRequest{
		X: x, Y: y,
		StepX: req.CoarseStep, StepY: req.CoarseStep,
		Settle:  req.Settle,
		GoToMax: true,
		Coords:  req.Coords,
	})
	res.Coarse = coarse
	if err != nil {
		return res, err
	}

	fx, err := o.LineScan(ctx, LineRequest{
		Axis:            domain.AxisX,
		Start:           coarse.Stage.X - req.FineSpan/2,
		Step:            req.FineStep,
		MaxNonImproving: req.MaxNonImproving,
		Settle:          req.Settle,
	})
	if err != nil {
		return res, err
	}

	fy, err := o.LineScan(ctx, LineRequest{
		Axis:            domain.AxisY,
		Start:           coarse.Stage.Y - req.FineSpan/2,
		Step:            req.FineStep,
		MaxNonImproving: req.MaxNonImproving,
		Settle:          req.Settle,
	})
	if err != nil {
		return res, err
	}

	res.Location = domain.Loc(fx.Position, fy.Position)
	for _, a := range []struct {
		axis domain.Axis
		pos  float64
	}{{domain.AxisX, fx.Position}, {domain.AxisY, fy.Position}} {
		m, err := o.motor(a.axis)
		if err != nil {
			return res, err
		}
		if err := o.approach(ctx, a.axis, m, a.pos, req.FineStep); err != nil {
			return res, err
		}
	}
	res.Value = fy.Value
	o.logger.Info("Auto scan finished", "loc", res.Location.String(), "value", res.Value)
	return res, nil
}
