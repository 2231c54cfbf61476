package scan

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aretw0/gator/pkg/domain"
)

// Coords selects the coordinate system of a scan window.
type Coords int

const (
	// StageCoords windows are in motor units.
	StageCoords Coords = iota
	// DesignCoords windows are in design units and converted through the calibration.
	DesignCoords
)

// MaxGridPoints bounds the size of a box scan.
const MaxGridPoints = 1_000_000

// BoxRequest describes a raster over X × Y, both bounds inclusive.
type BoxRequest struct {
	X, Y         [2]float64
	StepX, StepY float64
	Settle       time.Duration
	GoToMax      bool
	Coords       Coords
}

// Window returns the bounds of a span centred on c.
func Window(c domain.Location, spanX, spanY float64) (x, y [2]float64) {
	return [2]float64{c.X - spanX/2, c.X + spanX/2}, [2]float64{c.Y - spanY/2, c.Y + spanY/2}
}

// BoxResult is the outcome of a box scan.
type BoxResult struct {
	// Value is the best signal measured.
	Value float64
	// Loc is where Value was measured, in the request coordinates.
	Loc domain.Location
	// Stage is where Value was measured, in stage coordinates.
	Stage domain.Location
	// Grid holds every reading, indexed [x][y].
	Grid    [][]float64
	Samples int
}

// gridPoints returns lo, lo+step, ... up to and including hi.
func gridPoints(lo, hi, step float64) ([]float64, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("%w: step %g", domain.ErrInvalidScan, step)
	}
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) || hi < lo {
		return nil, fmt.Errorf("%w: range [%g, %g]", domain.ErrInvalidScan, lo, hi)
	}
	nf := math.Floor((hi-lo)/step+1e-9) + 1
	if math.IsInf(hi-lo, 0) || !(nf <= MaxGridPoints) {
		return nil, fmt.Errorf("%w: %g points per axis", domain.ErrInvalidScan, nf)
	}
	n := int(nf)
	pts := make([]float64, n)
	for i := range pts {
		pts[i] = lo + float64(i)*step
	}
	return pts, nil
}

func (o *Optimizer) toStage(coords Coords, x, y float64) (domain.Location, error) {
	if coords == StageCoords {
		return domain.Loc(x, y), nil
	}
	if o.transformer == nil {
		return domain.Location{}, fmt.Errorf("design window: %w", domain.ErrUncalibrated)
	}
	sx, sy, err := o.transformer.ToStage(x, y)
	return domain.Loc(sx, sy), err
}

// BoxScan measures every grid point of the window, outer loop over x and inner
// loop over y. The running maximum only changes on strict improvement, so ties
// keep the earliest point. The scan never terminates early; with GoToMax the
// stage finishes at the best point.
func (o *Optimizer) BoxScan(ctx context.Context, req BoxRequest) (BoxResult, error) {
	start := time.Now()
	var res BoxResult

	xs, err := gridPoints(req.X[0], req.X[1], req.StepX)
	if err != nil {
		return res, err
	}
	ys, err := gridPoints(req.Y[0], req.Y[1], req.StepY)
	if err != nil {
		return res, err
	}
	if len(xs)*len(ys) > MaxGridPoints {
		return res, fmt.Errorf("%w: %d grid points", domain.ErrInvalidScan, len(xs)*len(ys))
	}
	// Reject an uncalibrated design window before any motion.
	if _, err := o.toStage(req.Coords, xs[0], ys[0]); err != nil {
		return res, err
	}

	mx, err := o.motor(domain.AxisX)
	if err != nil {
		return res, err
	}
	my, err := o.motor(domain.AxisY)
	if err != nil {
		return res, err
	}

	o.logger.Debug("Box scan",
		"x0", xs[0], "x1", xs[len(xs)-1],
		"y0", ys[0], "y1", ys[len(ys)-1],
		"points", len(xs)*len(ys),
	)

	res.Grid = make([][]float64, len(xs))
	found := false
	var lastX, lastY float64
	moved := false

	for i, x := range xs {
		res.Grid[i] = make([]float64, len(ys))
		for j, y := range ys {
			here := domain.Loc(x, y)
			if err := ctx.Err(); err != nil {
				return res, aborted("box scan", here, err)
			}

			target, err := o.toStage(req.Coords, x, y)
			if err != nil {
				return res, err
			}
			if !moved || target.X != lastX {
				if err := o.moveTo(ctx, domain.AxisX, mx, target.X); err != nil {
					return res, err
				}
			}
			if !moved || target.Y != lastY {
				if err := o.moveTo(ctx, domain.AxisY, my, target.Y); err != nil {
					return res, err
				}
			}
			lastX, lastY, moved = target.X, target.Y, true

			if err := o.sleep(ctx, req.Settle); err != nil {
				return res, aborted("box scan", here, err)
			}
			v, err := o.measure(ctx, "box")
			if err != nil {
				return res, err
			}
			res.Grid[i][j] = v
			res.Samples++
			o.logger.Debug("Sample", "x", x, "y", y, "value", v)

			if !found || v > res.Value {
				found = true
				res.Value, res.Loc, res.Stage = v, here, target
			}
		}
	}

	if req.GoToMax {
		if err := o.moveTo(ctx, domain.AxisX, mx, res.Stage.X); err != nil {
			return res, err
		}
		if err := o.moveTo(ctx, domain.AxisY, my, res.Stage.Y); err != nil {
			return res, err
		}
	}

	o.metrics.finished("box", time.Since(start).Seconds(), res.Value)
	o.logger.Info("Box scan maximum", "value", res.Value, "loc", res.Loc.String(), "samples", res.Samples)
	return res, nil
}
