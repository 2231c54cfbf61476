package scan

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aretw0/gator/pkg/domain"
)

const (
	DefaultLineStep        = 0.0005
	DefaultMaxNonImproving = 15
	DefaultSettle          = 200 * time.Millisecond
	// DefaultMaxLineSteps bounds a line scan on a monotonically rising signal.
	DefaultMaxLineSteps = 10_000
)

// LineRequest describes a one dimensional hill climb along Axis.
type LineRequest struct {
	Axis            domain.Axis
	Start           float64
	Step            float64
	MaxNonImproving int
	Settle          time.Duration
	MaxSteps        int
}

// LineResult is the outcome of a line scan.
type LineResult struct {
	Position float64
	Value    float64
	Steps    int
}

// LineScan approaches Start from below, takes a baseline reading, then
// repeatedly steps +Step and measures. A strictly better reading becomes the
// best and resets the non-improvement counter; anything else increments it.
// The scan ends when the counter reaches MaxNonImproving, and the axis is
// returned to the best position, again approached from below. It is a
// refinement step: the caller must already be near the peak.
func (o *Optimizer) LineScan(ctx context.Context, req LineRequest) (LineResult, error) {
	start := time.Now()
	var res LineResult

	if req.Step == 0 {
		req.Step = DefaultLineStep
	}
	if req.MaxNonImproving == 0 {
		req.MaxNonImproving = DefaultMaxNonImproving
	}
	if req.MaxSteps == 0 {
		req.MaxSteps = DefaultMaxLineSteps
	}
	if !(req.Step > 0) || math.IsInf(req.Step, 0) || req.MaxNonImproving < 0 || req.MaxSteps < 0 {
		return res, fmt.Errorf("%w: step %g, patience %d", domain.ErrInvalidScan, req.Step, req.MaxNonImproving)
	}

	m, err := o.motor(req.Axis)
	if err != nil {
		return res, err
	}

	if err := o.approach(ctx, req.Axis, m, req.Start, req.Step); err != nil {
		return res, err
	}
	if err := o.sleep(ctx, req.Settle); err != nil {
		return res, err
	}
	if res.Value, err = o.measure(ctx, "line"); err != nil {
		return res, err
	}
	if res.Position, err = o.position(ctx, req.Axis, m); err != nil {
		return res, err
	}

	count := 0
	for count < req.MaxNonImproving && res.Steps < req.MaxSteps {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("line scan aborted on %s: %w", req.Axis, err)
		}
		if err := o.moveBy(ctx, req.Axis, m, req.Step); err != nil {
			return res, err
		}
		res.Steps++
		if err := o.sleep(ctx, req.Settle); err != nil {
			return res, err
		}
		v, err := o.measure(ctx, "line")
		if err != nil {
			return res, err
		}
		pos, err := o.position(ctx, req.Axis, m)
		if err != nil {
			return res, err
		}
		o.logger.Debug("Line sample", "axis", req.Axis, "pos", pos, "value", v)

		if v > res.Value {
			res.Value, res.Position = v, pos
			count = 0
		} else {
			count++
		}
	}

	if err := o.approach(ctx, req.Axis, m, res.Position, req.Step); err != nil {
		return res, err
	}

	o.metrics.finished("line", time.Since(start).Seconds(), res.Value)
	o.logger.Info("Line scan maximum", "axis", req.Axis, "pos", res.Position, "value", res.Value, "steps", res.Steps)
	return res, nil
}
