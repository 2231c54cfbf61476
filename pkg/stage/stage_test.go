package stage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/gator/pkg/adapters/sim"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStage(t *testing.T, opts ...stage.Option) (*stage.Stage, *sim.Motor, *sim.Motor) {
	t.Helper()
	x, y := sim.NewMotor("x"), sim.NewMotor("y")
	opts = append([]stage.Option{
		stage.WithAxis(domain.AxisX, x),
		stage.WithAxis(domain.AxisY, y),
	}, opts...)
	return stage.New(opts...), x, y
}

func TestGoToDesign_RequiresCalibration(t *testing.T) {
	ctx := context.Background()
	s, x, y := newStage(t)

	_, err := s.GoToDesign(ctx, 10, 20)
	assert.ErrorIs(t, err, domain.ErrUncalibrated)
	assert.Empty(t, x.History(), "no motion while uncalibrated")
	assert.Empty(t, y.History())

	require.NoError(t, s.Transformer().SetCalibration(domain.NewAffineMatrix(1, 0, 1, 0, 1, 1)))
	target, err := s.GoToDesign(ctx, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, domain.Loc(11, 21), target)

	xy, err := s.XY(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Loc(11, 21), xy)

	d, err := s.DesignXY(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 10, d.X, 1e-12)
	assert.InDelta(t, 20, d.Y, 1e-12)
}

func TestSetAndJogPosition(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newStage(t)

	require.NoError(t, s.SetPosition(ctx, domain.XY(1, 2)))
	require.NoError(t, s.JogPosition(ctx, domain.Position{domain.AxisY: 0.5}))

	pos, err := s.Position(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Position{domain.AxisX: 1, domain.AxisY: 2.5}, pos)

	err = s.SetPosition(ctx, domain.Position{domain.AxisZ: 1})
	assert.ErrorIs(t, err, domain.ErrAxisUnavailable)
}

func TestHardwareErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	s, x, _ := newStage(t)
	boom := errors.New("stall")
	x.OnCommand = func(op sim.Op) error {
		if op.Kind == "move_to" {
			return boom
		}
		return nil
	}

	err := s.MoveXY(ctx, domain.Loc(1, 1))
	require.ErrorIs(t, err, boom)
	var hw *domain.HardwareError
	require.True(t, errors.As(err, &hw))
	assert.Equal(t, "x", hw.Device)
}

func TestStopAllAttemptsEveryAxis(t *testing.T) {
	ctx := context.Background()
	s, x, y := newStage(t)
	x.OnCommand = func(op sim.Op) error { return errors.New("x offline") }

	err := s.StopAll(ctx)
	assert.Error(t, err)
	assert.Equal(t, 1, y.Count("stop"))
}

func TestLoadUnload(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newStage(t, stage.WithLoadPositions(domain.XY(0, 50), domain.XY(0, 0)))

	require.NoError(t, s.Load(ctx))
	xy, _ := s.XY(ctx)
	assert.Equal(t, domain.Loc(0, 50), xy)

	require.NoError(t, s.Unload(ctx))
	xy, _ = s.XY(ctx)
	assert.Equal(t, domain.Loc(0, 0), xy)

	bare, _, _ := newStage(t)
	assert.Error(t, bare.Load(ctx))
}

func TestBacklash_ApproachesFromBelow(t *testing.T) {
	ctx := context.Background()
	m := sim.NewMotor("z")
	b := stage.WithBacklash(m, 0.2)

	require.NoError(t, b.MoveTo(ctx, 5))
	require.NoError(t, b.MoveTo(ctx, 3))

	hist := m.History()
	require.Len(t, hist, 3)
	var moves []float64
	for _, op := range hist {
		if op.Kind == "move_to" {
			moves = append(moves, op.Arg)
		}
	}
	assert.InDeltaSlice(t, []float64{5, 3 - 0.3, 3}, moves, 1e-12)
}

func TestApproachFromBelow(t *testing.T) {
	ctx := context.Background()
	m := sim.NewMotor("x")

	require.NoError(t, stage.ApproachFromBelow(ctx, m, 2, 0.1))
	require.NoError(t, stage.ApproachFromBelow(ctx, m, 1, 0))

	var moves []float64
	for _, op := range m.History() {
		if op.Kind == "move_to" {
			moves = append(moves, op.Arg)
		}
	}
	assert.InDeltaSlice(t, []float64{2 - 0.15, 2, 1}, moves, 1e-12)
}

func TestJog(t *testing.T) {
	ctx := context.Background()
	s, x, _ := newStage(t)
	require.NoError(t, s.Jog(ctx, domain.AxisX, domain.Backward, 0.1))
	pos, _ := x.Position(ctx)
	assert.InDelta(t, -0.1, pos, 1e-12)
}
