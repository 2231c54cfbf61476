package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/gator/internal/logging"
	"github.com/aretw0/gator/pkg/calibration"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/ports"
	"github.com/aretw0/gator/pkg/stage"
)

// Stage is the axis lookup the optimizer needs. *stage.Stage implements it.
type Stage interface {
	Axis(axis domain.Axis) (ports.Motor, error)
}

// SleepFunc blocks for the settle time. It returns early with ctx.Err() when ctx ends.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Optimizer runs scans against one stage and one acquisition unit.
type Optimizer struct {
	stage       Stage
	daq         ports.DataAcquisitionUnit
	transformer *calibration.Transformer
	backlash    float64
	sleep       SleepFunc
	metrics     *Metrics
	logger      *slog.Logger
}

// Option configures the Optimizer.
type Option func(*Optimizer)

// WithLogger configures a logger for the Optimizer.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Optimizer) {
		o.logger = logger
	}
}

// WithMetrics records scan activity.
func WithMetrics(m *Metrics) Option {
	return func(o *Optimizer) {
		o.metrics = m
	}
}

// WithSleep replaces the settle wait, typically with a no-op in tests.
func WithSleep(fn SleepFunc) Option {
	return func(o *Optimizer) {
		o.sleep = fn
	}
}

// WithTransformer enables box windows expressed in design coordinates.
func WithTransformer(t *calibration.Transformer) Option {
	return func(o *Optimizer) {
		o.transformer = t
	}
}

// WithBacklash sets the mechanical slack that line scans overshoot by when
// approaching a position. When zero, the line step is used.
func WithBacklash(amount float64) Option {
	return func(o *Optimizer) {
		o.backlash = amount
	}
}

// NewOptimizer creates an Optimizer over stage and daq.
func NewOptimizer(stage Stage, daq ports.DataAcquisitionUnit, opts ...Option) *Optimizer {
	o := &Optimizer{
		stage:  stage,
		daq:    daq,
		sleep:  Sleep,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Sleep waits for d or until ctx ends.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoSleep skips settle waits.
func NoSleep(ctx context.Context, d time.Duration) error {
	return nil
}

func (o *Optimizer) motor(axis domain.Axis) (ports.Motor, error) {
	return o.stage.Axis(axis)
}

func (o *Optimizer) moveTo(ctx context.Context, axis domain.Axis, m ports.Motor, pos float64) error {
	o.metrics.moved(string(axis))
	if err := m.MoveTo(ctx, pos); err != nil {
		return &domain.HardwareError{Device: string(axis), Op: "move_to", Err: err}
	}
	return nil
}

func (o *Optimizer) moveBy(ctx context.Context, axis domain.Axis, m ports.Motor, delta float64) error {
	o.metrics.moved(string(axis))
	if err := m.MoveBy(ctx, delta); err != nil {
		return &domain.HardwareError{Device: string(axis), Op: "move_by", Err: err}
	}
	return nil
}

func (o *Optimizer) position(ctx context.Context, axis domain.Axis, m ports.Motor) (float64, error) {
	v, err := m.Position(ctx)
	if err != nil {
		return 0, &domain.HardwareError{Device: string(axis), Op: "get_position", Err: err}
	}
	return v, nil
}

func (o *Optimizer) measure(ctx context.Context, scan string) (float64, error) {
	o.metrics.measured(scan)
	v, err := o.daq.Measure(ctx)
	if err != nil {
		return 0, &domain.HardwareError{Device: "daq", Op: "measure", Err: err}
	}
	return v, nil
}

// metered counts and wraps the absolute moves of one axis.
type metered struct {
	ports.Motor
	o    *Optimizer
	axis domain.Axis
}

func (m metered) MoveTo(ctx context.Context, pos float64) error {
	return m.o.moveTo(ctx, m.axis, m.Motor, pos)
}

// approach moves m to pos finishing with positive travel: it overshoots below
// pos first, then moves up to it.
func (o *Optimizer) approach(ctx context.Context, axis domain.Axis, m ports.Motor, pos, step float64) error {
	slack := o.backlash
	if slack <= 0 {
		slack = step
	}
	return stage.ApproachFromBelow(ctx, metered{Motor: m, o: o, axis: axis}, pos, slack)
}

// Here returns the current planar stage position.
func (o *Optimizer) Here(ctx context.Context) (domain.Location, error) {
	var out domain.Location
	mx, err := o.motor(domain.AxisX)
	if err != nil {
		return out, err
	}
	my, err := o.motor(domain.AxisY)
	if err != nil {
		return out, err
	}
	if out.X, err = o.position(ctx, domain.AxisX, mx); err != nil {
		return out, err
	}
	if out.Y, err = o.position(ctx, domain.AxisY, my); err != nil {
		return out, err
	}
	return out, nil
}

func aborted(op string, at domain.Location, err error) error {
	return fmt.Errorf("%s aborted at %s: %w", op, at, err)
}
