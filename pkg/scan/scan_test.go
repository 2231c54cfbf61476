package scan_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/aretw0/gator/pkg/adapters/sim"
	"github.com/aretw0/gator/pkg/calibration"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/scan"
	"github.com/aretw0/gator/pkg/stage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rig struct {
	x, y  *sim.Motor
	daq   *sim.DAQ
	stage *stage.Stage
}

func newRig(signal sim.SignalFunc) *rig {
	x, y := sim.NewMotor("x"), sim.NewMotor("y")
	s := stage.New(stage.WithAxis(domain.AxisX, x), stage.WithAxis(domain.AxisY, y))
	return &rig{x: x, y: y, daq: sim.NewDAQ(x, y, signal), stage: s}
}

func (r *rig) optimizer(opts ...scan.Option) *scan.Optimizer {
	opts = append([]scan.Option{scan.WithSleep(scan.NoSleep)}, opts...)
	return scan.NewOptimizer(r.stage, r.daq, opts...)
}

func TestBoxScan_FindsGridMaximum(t *testing.T) {
	signal := sim.Gaussian(0.33, -0.21, 0.4, 5)
	r := newRig(signal)
	reg := prometheus.NewRegistry()
	metrics := scan.NewMetrics(reg)

	res, err := r.optimizer(scan.WithMetrics(metrics)).BoxScan(context.Background(), scan.BoxRequest{
		X: [2]float64{-1, 1}, Y: [2]float64{-1, 1},
		StepX: 0.1, StepY: 0.1,
	})
	require.NoError(t, err)

	require.Len(t, res.Grid, 21)
	require.Len(t, res.Grid[0], 21)
	assert.Equal(t, 21*21, res.Samples)
	assert.Equal(t, 21*21, r.daq.Measurements())

	// Brute force over the same grid.
	best, bi, bj := math.Inf(-1), 0, 0
	for i := 0; i <= 20; i++ {
		for j := 0; j <= 20; j++ {
			v := signal(-1+float64(i)*0.1, -1+float64(j)*0.1)
			if v > best {
				best, bi, bj = v, i, j
			}
		}
	}
	assert.InDelta(t, best, res.Value, 1e-12)
	assert.InDelta(t, -1+float64(bi)*0.1, res.Loc.X, 1e-9)
	assert.InDelta(t, -1+float64(bj)*0.1, res.Loc.Y, 1e-9)
	assert.InDelta(t, 0.3, res.Loc.X, 1e-9)
	assert.InDelta(t, -0.2, res.Loc.Y, 1e-9)

	assert.Equal(t, float64(21*21), testutil.ToFloat64(metrics.Measurements.WithLabelValues("box")))
	assert.InDelta(t, res.Value, testutil.ToFloat64(metrics.BestSignal.WithLabelValues("box")), 1e-12)
}

func TestBoxScan_RowMajorAndGoToMax(t *testing.T) {
	r := newRig(sim.Gaussian(2, 1, 1, 1))

	res, err := r.optimizer().BoxScan(context.Background(), scan.BoxRequest{
		X: [2]float64{0, 3}, Y: [2]float64{0, 2},
		StepX: 1, StepY: 1,
		GoToMax: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Loc(2, 1), res.Loc)

	// x moves once per row plus the final move to the maximum.
	assert.Equal(t, 4+1, r.x.Count("move_to"))

	xy, err := r.stage.XY(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Loc(2, 1), xy)
}

func TestBoxScan_TieKeepsEarliest(t *testing.T) {
	r := newRig(func(x, y float64) float64 { return 1 })

	res, err := r.optimizer().BoxScan(context.Background(), scan.BoxRequest{
		X: [2]float64{5, 6}, Y: [2]float64{7, 8}, StepX: 0.5, StepY: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Loc(5, 7), res.Loc)
	assert.Equal(t, 9, res.Samples, "no early termination")
}

func TestBoxScan_InvalidRequests(t *testing.T) {
	r := newRig(sim.Gaussian(0, 0, 1, 1))
	o := r.optimizer()
	ctx := context.Background()

	cases := map[string]scan.BoxRequest{
		"zero step":      {X: [2]float64{0, 1}, Y: [2]float64{0, 1}, StepX: 0, StepY: 1},
		"negative step":  {X: [2]float64{0, 1}, Y: [2]float64{0, 1}, StepX: 1, StepY: -1},
		"reversed range": {X: [2]float64{1, 0}, Y: [2]float64{0, 1}, StepX: 1, StepY: 1},
		"huge grid":      {X: [2]float64{0, 1}, Y: [2]float64{0, 1}, StepX: 1e-7, StepY: 1e-7},
		"huge window":    {X: [2]float64{0, 1e300}, Y: [2]float64{0, 1}, StepX: 1, StepY: 1},
		"overflowing window": {
			X: [2]float64{-math.MaxFloat64, math.MaxFloat64}, Y: [2]float64{0, 1}, StepX: 1, StepY: 1,
		},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := o.BoxScan(ctx, req)
			assert.ErrorIs(t, err, domain.ErrInvalidScan)
		})
	}
	assert.Empty(t, r.x.History(), "invalid requests never move the stage")
}

func TestBoxScan_HardwareErrorNotRetried(t *testing.T) {
	r := newRig(sim.Gaussian(0, 0, 1, 1))
	boom := errors.New("scope timeout")
	calls := 0
	r.daq.OnMeasure = func() error {
		calls++
		if calls == 5 {
			return boom
		}
		return nil
	}

	_, err := r.optimizer().BoxScan(context.Background(), scan.BoxRequest{
		X: [2]float64{0, 2}, Y: [2]float64{0, 2}, StepX: 1, StepY: 1,
	})
	require.ErrorIs(t, err, boom)
	var hw *domain.HardwareError
	require.True(t, errors.As(err, &hw))
	assert.Equal(t, "daq", hw.Device)
	assert.Equal(t, 5, calls)
}

func TestBoxScan_CancelBetweenPoints(t *testing.T) {
	r := newRig(sim.Gaussian(0, 0, 1, 1))
	ctx, cancel := context.WithCancel(context.Background())
	n := 0
	r.daq.OnMeasure = func() error {
		n++
		if n == 3 {
			cancel()
		}
		return nil
	}

	_, err := r.optimizer().BoxScan(ctx, scan.BoxRequest{
		X: [2]float64{0, 2}, Y: [2]float64{0, 2}, StepX: 1, StepY: 1,
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, n, "the in-flight point completes, no further points start")
}

func TestBoxScan_DesignCoords(t *testing.T) {
	r := newRig(sim.Gaussian(11, 21, 2, 1))
	ctx := context.Background()
	req := scan.BoxRequest{
		X: [2]float64{8, 12}, Y: [2]float64{18, 22}, StepX: 1, StepY: 1,
		Coords: scan.DesignCoords,
	}

	tr := calibration.NewTransformer()
	_, err := r.optimizer(scan.WithTransformer(tr)).BoxScan(ctx, req)
	assert.ErrorIs(t, err, domain.ErrUncalibrated)
	assert.Empty(t, r.x.History())

	require.NoError(t, tr.SetCalibration(domain.NewAffineMatrix(1, 0, 1, 0, 1, 1)))
	res, err := r.optimizer(scan.WithTransformer(tr)).BoxScan(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.Loc(10, 20), res.Loc)
	assert.Equal(t, domain.Loc(11, 21), res.Stage)
}

func TestLineScan_Unimodal(t *testing.T) {
	const peak, step, patience = 0.0123, 0.0005, 15
	r := newRig(func(x, y float64) float64 { return math.Exp(-(x - peak) * (x - peak) / (2 * 0.01 * 0.01)) })

	res, err := r.optimizer().LineScan(context.Background(), scan.LineRequest{
		Axis: domain.AxisX, Start: 0, Step: step, MaxNonImproving: patience,
	})
	require.NoError(t, err)

	assert.InDelta(t, peak, res.Position, step)
	assert.LessOrEqual(t, res.Steps, int(math.Ceil(peak/step))+patience+1)
	assert.Equal(t, res.Steps, r.x.Count("move_by"))

	pos, _ := r.x.Position(context.Background())
	assert.InDelta(t, res.Position, pos, 1e-12, "axis left at the best position")
}

func TestLineScan_ApproachesFromBelow(t *testing.T) {
	r := newRig(func(x, y float64) float64 { return -math.Abs(x - 1) })
	r.x.Backlash = 0.002

	res, err := r.optimizer(scan.WithBacklash(0.002)).LineScan(context.Background(), scan.LineRequest{
		Axis: domain.AxisX, Start: 0.99, Step: 0.001, MaxNonImproving: 3,
	})
	require.NoError(t, err)

	var moves []float64
	for _, op := range r.x.History() {
		if op.Kind == "move_to" {
			moves = append(moves, op.Arg)
		}
	}
	require.Len(t, moves, 4)
	assert.InDelta(t, 0.99-0.003, moves[0], 1e-12)
	assert.InDelta(t, 0.99, moves[1], 1e-12)
	assert.InDelta(t, res.Position-0.003, moves[2], 1e-12)
	assert.InDelta(t, res.Position, moves[3], 1e-12)

	// The load lags by the backlash when approached from below, so the encoder peak is shifted.
	assert.InDelta(t, 1.002, res.Position, 0.001)
	assert.InDelta(t, r.x.Actual(), res.Position-0.002, 1e-9)
}

func TestLineScan_UnknownAxis(t *testing.T) {
	r := newRig(sim.Gaussian(0, 0, 1, 1))
	_, err := r.optimizer().LineScan(context.Background(), scan.LineRequest{Axis: domain.AxisZ})
	assert.ErrorIs(t, err, domain.ErrAxisUnavailable)
}

func TestLineScan_InvalidStep(t *testing.T) {
	r := newRig(sim.Gaussian(0, 0, 1, 1))
	for _, step := range []float64{-0.001, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := r.optimizer().LineScan(context.Background(), scan.LineRequest{Axis: domain.AxisX, Step: step})
		assert.ErrorIs(t, err, domain.ErrInvalidScan, "step %g", step)
	}
	assert.Empty(t, r.x.History())
}

func TestAutoScan(t *testing.T) {
	peak := domain.Loc(0.012, -0.007)
	r := newRig(sim.Gaussian(peak.X, peak.Y, 0.01, 1))

	res, err := r.optimizer().AutoScan(context.Background(), scan.AutoRequest{Center: domain.Loc(0, 0)})
	require.NoError(t, err)

	assert.InDelta(t, 0.01, res.Coarse.Loc.X, 1e-9)
	assert.InDelta(t, -0.005, res.Coarse.Loc.Y, 1e-9)
	assert.InDelta(t, peak.X, res.Location.X, scan.DefaultLineStep)
	assert.InDelta(t, peak.Y, res.Location.Y, scan.DefaultLineStep)

	xy, err := r.stage.XY(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, res.Location.X, xy.X, 1e-12)
	assert.InDelta(t, res.Location.Y, xy.Y, 1e-12)
	assert.Greater(t, res.Value, 0.99)
}
