package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/gator/internal/logging"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/ports"
	"github.com/aretw0/gator/pkg/scan"
	"github.com/aretw0/gator/pkg/stage"
)

// Env is what an experiment can use while it runs.
type Env struct {
	Stage  *stage.Stage
	DAQ    ports.DataAcquisitionUnit
	Logger *slog.Logger
}

// Experiment is a measurement procedure. One value is used for the whole
// batch, so fields set in Setup are visible to every Run.
type Experiment interface {
	Setup(ctx context.Context, env *Env) error
	Run(ctx context.Context, env *Env, c *domain.Circuit) error
	Teardown(ctx context.Context, env *Env) error
}

// Refiner improves the stage position around a point. *scan.Optimizer implements it.
type Refiner interface {
	AutoScan(ctx context.Context, req scan.AutoRequest) (scan.AutoResult, error)
}

// AxisLocker serializes motion per axis. *session.Manager implements it.
type AxisLocker interface {
	WithAxes(ctx context.Context, axes []domain.Axis, fn func(context.Context) error) error
}

// Visit records where a circuit was measured.
type Visit struct {
	Circuit *domain.Circuit
	// Stage is the commanded position, after refinement when enabled.
	Stage    domain.Location
	Refined  bool
	Signal   float64
	Duration time.Duration
}

// Report lists the circuits visited, in order.
type Report struct {
	Visits []Visit
}

// Runner drives an Experiment over a CircuitMap.
type Runner struct {
	stage   *stage.Stage
	daq     ports.DataAcquisitionUnit
	refiner Refiner
	auto    scan.AutoRequest
	locker  AxisLocker
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithRefine runs an auto scan around each circuit before the experiment.
// Center and Coords of req are overwritten per circuit.
func WithRefine(r Refiner, req scan.AutoRequest) Option {
	return func(rn *Runner) {
		rn.refiner = r
		rn.auto = req
	}
}

// WithLocker holds the planar axes while a circuit is positioned and refined.
func WithLocker(l AxisLocker) Option {
	return func(rn *Runner) {
		rn.locker = l
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rn *Runner) {
		rn.logger = logger
	}
}

// NewRunner creates a Runner for a calibrated stage.
func NewRunner(st *stage.Stage, daq ports.DataAcquisitionUnit, opts ...Option) *Runner {
	r := &Runner{
		stage:  st,
		daq:    daq,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var planar = []domain.Axis{domain.AxisX, domain.AxisY}

func (r *Runner) withAxes(ctx context.Context, fn func(context.Context) error) error {
	if r.locker == nil {
		return fn(ctx)
	}
	return r.locker.WithAxes(ctx, planar, fn)
}

// Run visits every circuit of m in order. The first failure aborts the batch;
// hardware errors are not retried. The report covers the circuits completed.
func (r *Runner) Run(ctx context.Context, m *domain.CircuitMap, exp Experiment) (rep *Report, err error) {
	rep = &Report{}
	if !r.stage.Transformer().Calibrated() {
		return rep, domain.ErrUncalibrated
	}
	env := &Env{Stage: r.stage, DAQ: r.daq, Logger: r.logger}

	if err := exp.Setup(ctx, env); err != nil {
		return rep, fmt.Errorf("experiment setup: %w", err)
	}
	defer func() {
		if terr := exp.Teardown(context.WithoutCancel(ctx), env); terr != nil {
			err = errors.Join(err, fmt.Errorf("experiment teardown: %w", terr))
		}
	}()

	r.logger.Info("Experiment started", "circuits", m.Len())
	for _, c := range m.Circuits() {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		v, err := r.visit(ctx, env, exp, c)
		if err != nil {
			r.logger.Error("Experiment aborted", "circuit", c.String(), "err", err)
			return rep, fmt.Errorf("circuit %s: %w", c.Loc, err)
		}
		rep.Visits = append(rep.Visits, v)
	}
	r.logger.Info("Experiment finished", "circuits", len(rep.Visits))
	return rep, nil
}

func (r *Runner) visit(ctx context.Context, env *Env, exp Experiment, c *domain.Circuit) (Visit, error) {
	start := time.Now()
	v := Visit{Circuit: c}

	err := r.withAxes(ctx, func(ctx context.Context) error {
		loc, err := r.stage.GoToCircuit(ctx, c)
		if err != nil {
			return err
		}
		v.Stage = loc
		if r.refiner == nil {
			return nil
		}
		req := r.auto
		req.Center, req.Coords = loc, scan.StageCoords
		res, err := r.refiner.AutoScan(ctx, req)
		if err != nil {
			return err
		}
		v.Stage, v.Refined, v.Signal = res.Location, true, res.Value
		return nil
	})
	if err != nil {
		return v, err
	}

	r.logger.Debug("Circuit positioned", "circuit", c.String(), "stage", v.Stage.String(), "refined", v.Refined)
	if err := exp.Run(ctx, env, c); err != nil {
		return v, err
	}
	v.Duration = time.Since(start)
	return v, nil
}
