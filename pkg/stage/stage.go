package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/gator/internal/logging"
	"github.com/aretw0/gator/pkg/calibration"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/ports"
)

// Stage is the set of axes of one probe station plus its calibration.
type Stage struct {
	axes        map[domain.Axis]ports.Motor
	transformer *calibration.Transformer
	loaded      domain.Position
	unloaded    domain.Position
	logger      *slog.Logger
}

// Option configures the Stage.
type Option func(*Stage)

// WithAxis attaches a motor to an axis.
func WithAxis(axis domain.Axis, m ports.Motor) Option {
	return func(s *Stage) {
		s.axes[axis] = m
	}
}

// WithTransformer shares a calibration transformer with the stage.
func WithTransformer(t *calibration.Transformer) Option {
	return func(s *Stage) {
		s.transformer = t
	}
}

// WithLoadPositions sets where the stage goes to load and unload a chip.
func WithLoadPositions(loaded, unloaded domain.Position) Option {
	return func(s *Stage) {
		s.loaded = loaded
		s.unloaded = unloaded
	}
}

// WithLogger configures a logger for the Stage.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Stage) {
		s.logger = logger
	}
}

// New creates a Stage. Without WithTransformer it owns a fresh, uncalibrated transformer.
func New(opts ...Option) *Stage {
	s := &Stage{
		axes:   make(map[domain.Axis]ports.Motor),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.transformer == nil {
		s.transformer = calibration.NewTransformer()
	}
	return s
}

// Transformer returns the calibration used for design-space moves.
func (s *Stage) Transformer() *calibration.Transformer {
	return s.transformer
}

// Axis returns the motor of an axis.
func (s *Stage) Axis(axis domain.Axis) (ports.Motor, error) {
	m, ok := s.axes[axis]
	if !ok || m == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrAxisUnavailable, axis)
	}
	return m, nil
}

// Axes returns the configured axes in canonical order.
func (s *Stage) Axes() []domain.Axis {
	var out []domain.Axis
	for _, a := range domain.Axes {
		if _, ok := s.axes[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

func hwErr(axis domain.Axis, op string, err error) error {
	if err == nil {
		return nil
	}
	return &domain.HardwareError{Device: string(axis), Op: op, Err: err}
}

// SetPosition moves every axis named in p to its absolute target, in canonical axis order.
func (s *Stage) SetPosition(ctx context.Context, p domain.Position) error {
	return s.each(p, func(a domain.Axis, m ports.Motor, v float64) error {
		return hwErr(a, "move_to", m.MoveTo(ctx, v))
	})
}

// JogPosition moves every axis named in p by its relative amount.
func (s *Stage) JogPosition(ctx context.Context, p domain.Position) error {
	return s.each(p, func(a domain.Axis, m ports.Motor, v float64) error {
		return hwErr(a, "move_by", m.MoveBy(ctx, v))
	})
}

func (s *Stage) each(p domain.Position, fn func(domain.Axis, ports.Motor, float64) error) error {
	for _, a := range domain.Axes {
		v, ok := p[a]
		if !ok {
			continue
		}
		m, err := s.Axis(a)
		if err != nil {
			return err
		}
		if err := fn(a, m, v); err != nil {
			return err
		}
	}
	return nil
}

// Position reads every configured axis.
func (s *Stage) Position(ctx context.Context) (domain.Position, error) {
	out := domain.Position{}
	for _, a := range s.Axes() {
		v, err := s.axes[a].Position(ctx)
		if err != nil {
			return nil, hwErr(a, "get_position", err)
		}
		out[a] = v
	}
	return out, nil
}

// XY reads the planar stage position.
func (s *Stage) XY(ctx context.Context) (domain.Location, error) {
	var out domain.Location
	for _, a := range []domain.Axis{domain.AxisX, domain.AxisY} {
		m, err := s.Axis(a)
		if err != nil {
			return out, err
		}
		v, err := m.Position(ctx)
		if err != nil {
			return out, hwErr(a, "get_position", err)
		}
		if a == domain.AxisX {
			out.X = v
		} else {
			out.Y = v
		}
	}
	return out, nil
}

// MoveXY moves the planar axes to a stage-space location.
func (s *Stage) MoveXY(ctx context.Context, l domain.Location) error {
	return s.SetPosition(ctx, domain.XY(l.X, l.Y))
}

// GoToDesign moves to the stage position of a design-space point and returns it.
// It fails with domain.ErrUncalibrated, without moving, when no matrix is installed.
func (s *Stage) GoToDesign(ctx context.Context, x, y float64) (domain.Location, error) {
	sx, sy, err := s.transformer.ToStage(x, y)
	if err != nil {
		return domain.Location{}, err
	}
	target := domain.Loc(sx, sy)
	if err := s.MoveXY(ctx, target); err != nil {
		return target, err
	}

	if actual, err := s.XY(ctx); err == nil {
		s.logger.Debug("Design move",
			"design", domain.Loc(x, y).String(),
			"cmd", target.String(),
			"act", actual.String(),
			"deviation", actual.Distance(target),
		)
	}
	return target, nil
}

// GoToCircuit moves to the stage position of a circuit.
func (s *Stage) GoToCircuit(ctx context.Context, c *domain.Circuit) (domain.Location, error) {
	return s.GoToDesign(ctx, c.Loc.X, c.Loc.Y)
}

// DesignXY returns the current planar position expressed in design space.
func (s *Stage) DesignXY(ctx context.Context) (domain.Location, error) {
	l, err := s.XY(ctx)
	if err != nil {
		return l, err
	}
	x, y, err := s.transformer.ToDesign(l.X, l.Y)
	return domain.Loc(x, y), err
}

// StopAll attempts to stop every axis, even when some fail.
func (s *Stage) StopAll(ctx context.Context) error {
	var errs []error
	for _, a := range s.Axes() {
		errs = append(errs, hwErr(a, "stop", s.axes[a].Stop(ctx)))
	}
	return errors.Join(errs...)
}

// HomeAll homes every axis in canonical order.
func (s *Stage) HomeAll(ctx context.Context) error {
	for _, a := range s.Axes() {
		if err := hwErr(a, "home", s.axes[a].Home(ctx)); err != nil {
			return err
		}
	}
	return nil
}

// Load moves to the configured chip loading position.
func (s *Stage) Load(ctx context.Context) error {
	if len(s.loaded) == 0 {
		return errors.New("no loaded position configured")
	}
	s.logger.Info("Moving to loaded position")
	return s.SetPosition(ctx, s.loaded)
}

// Unload moves to the configured chip unloading position.
func (s *Stage) Unload(ctx context.Context) error {
	if len(s.unloaded) == 0 {
		return errors.New("no unloaded position configured")
	}
	s.logger.Info("Moving to unloaded position")
	return s.SetPosition(ctx, s.unloaded)
}

// Jog moves one axis by step in direction d.
func (s *Stage) Jog(ctx context.Context, axis domain.Axis, d domain.Direction, step float64) error {
	m, err := s.Axis(axis)
	if err != nil {
		return err
	}
	return hwErr(axis, "move_by", m.MoveBy(ctx, sign(d)*step))
}
