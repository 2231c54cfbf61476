package gator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/gator/internal/logging"
	"github.com/aretw0/gator/pkg/calibration"
	"github.com/aretw0/gator/pkg/catalog"
	"github.com/aretw0/gator/pkg/config"
	"github.com/aretw0/gator/pkg/control"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/experiment"
	"github.com/aretw0/gator/pkg/ports"
	"github.com/aretw0/gator/pkg/registry"
	"github.com/aretw0/gator/pkg/scan"
	"github.com/aretw0/gator/pkg/session"
	"github.com/aretw0/gator/pkg/stage"
)

// Version is the release version, overridden at link time.
var Version = "0.1.0-dev"

var planar = []domain.Axis{domain.AxisX, domain.AxisY}

// Session is the high-level entry point for the gator library. It owns the
// circuit catalog and the calibration, and serializes stage motion per axis.
type Session struct {
	mu       sync.RWMutex
	circuits *domain.CircuitMap

	transformer *calibration.Transformer
	calibrator  *calibration.Calibrator
	selector    calibration.Selector

	stage     *stage.Stage
	daq       ports.DataAcquisitionUnit
	store     ports.CalibrationStore
	profile   string
	locker    ports.DistributedLocker
	axes      *session.Manager
	metrics   *scan.Metrics
	backlash  float64
	auto      scan.AutoRequest
	logger    *slog.Logger
	optimizer *scan.Optimizer

	optimizerOpts []scan.Option
	refineTargets bool
}

// Option defines a functional option for configuring the Session.
type Option func(*Session)

// WithStage attaches the stage. Its transformer becomes the session's.
func WithStage(st *stage.Stage) Option {
	return func(s *Session) {
		s.stage = st
	}
}

// WithDAQ attaches the acquisition unit used by scans.
func WithDAQ(d ports.DataAcquisitionUnit) Option {
	return func(s *Session) {
		s.daq = d
	}
}

// WithCircuitMap sets the initial catalog.
func WithCircuitMap(m *domain.CircuitMap) Option {
	return func(s *Session) {
		s.circuits = m
	}
}

// WithCalibrationStore persists calibrations under the session profile.
func WithCalibrationStore(store ports.CalibrationStore) Option {
	return func(s *Session) {
		s.store = store
	}
}

// WithProfile names the stage profile; it keys the stored calibration and the distributed locks.
func WithProfile(name string) Option {
	return func(s *Session) {
		s.profile = name
	}
}

// WithLocker shares axis locks with other processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(s *Session) {
		s.locker = l
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithMetrics records scan activity.
func WithMetrics(m *scan.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithSelection sets the calibration target strategy (default: flagged circuits).
func WithSelection(sel calibration.Selector) Option {
	return func(s *Session) {
		s.selector = sel
	}
}

// WithCalibrator replaces the default solver tolerances.
func WithCalibrator(c *calibration.Calibrator) Option {
	return func(s *Session) {
		s.calibrator = c
	}
}

// WithBacklash sets the approach overshoot used by scans.
func WithBacklash(amount float64) Option {
	return func(s *Session) {
		s.backlash = amount
	}
}

// WithAutoDefaults sets the auto scan used when visiting with refinement.
func WithAutoDefaults(req scan.AutoRequest) Option {
	return func(s *Session) {
		s.auto = req
	}
}

// WithTargetRefinement makes CalibrateInteractive auto scan around each
// centered target before solving.
func WithTargetRefinement() Option {
	return func(s *Session) {
		s.refineTargets = true
	}
}

// WithSleep replaces the settle wait of scans, e.g. with scan.NoSleep in simulation.
func WithSleep(fn scan.SleepFunc) Option {
	return func(s *Session) {
		s.optimizerOpts = append(s.optimizerOpts, scan.WithSleep(fn))
	}
}

// New creates a Session.
func New(opts ...Option) (*Session, error) {
	s := &Session{
		circuits: domain.NewCircuitMap(),
		selector: calibration.Flagged{Key: domain.KeyCalibrationCircuit},
		profile:  "default",
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.calibrator == nil {
		s.calibrator = calibration.NewCalibrator(calibration.WithLogger(s.logger))
	}
	if s.stage != nil {
		s.transformer = s.stage.Transformer()
	} else {
		s.transformer = calibration.NewTransformer()
	}

	axOpts := []session.Option{session.WithNamespace(s.profile), session.WithLogger(s.logger)}
	if s.locker != nil {
		axOpts = append(axOpts, session.WithLocker(s.locker))
	}
	s.axes = session.NewManager(axOpts...)

	if s.stage != nil && s.daq != nil {
		s.optimizer = scan.NewOptimizer(s.stage, s.daq, append([]scan.Option{
			scan.WithLogger(s.logger),
			scan.WithMetrics(s.metrics),
			scan.WithTransformer(s.transformer),
			scan.WithBacklash(s.backlash),
		}, s.optimizerOpts...)...)
	}
	return s, nil
}

// Open builds the hardware of a profile and creates a Session around it. The
// profile's stored calibration is restored when store holds one.
func Open(ctx context.Context, p *config.Profile, reg *registry.Registry, opts ...Option) (*Session, error) {
	sel, err := calibration.SelectorByName(p.Selection)
	if err != nil {
		return nil, err
	}
	tr := calibration.NewTransformer()
	base := &Session{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(base)
	}
	hw, err := p.Build(reg, tr, base.logger)
	if err != nil {
		return nil, err
	}

	all := append([]Option{
		WithProfile(p.Name),
		WithSelection(sel),
		WithBacklash(hw.Backlash),
		WithAutoDefaults(p.Scan.AutoRequest(domain.Location{})),
	}, opts...)
	all = append(all, WithStage(hw.Stage), WithDAQ(hw.DAQ))
	s, err := New(all...)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		if err := s.RestoreCalibration(ctx); err != nil && !errors.Is(err, domain.ErrCalibrationNotFound) {
			return nil, err
		}
	}
	return s, nil
}

// Profile returns the profile name.
func (s *Session) Profile() string { return s.profile }

// Stage returns the attached stage, or nil.
func (s *Session) Stage() *stage.Stage { return s.stage }

// DAQ returns the attached acquisition unit, or nil.
func (s *Session) DAQ() ports.DataAcquisitionUnit { return s.daq }

// Transformer returns the coordinate transformer.
func (s *Session) Transformer() *calibration.Transformer { return s.transformer }

// Axes returns the axis lock manager.
func (s *Session) Axes() *session.Manager { return s.axes }

// Optimizer returns the scan optimizer, or nil without a stage and DAQ.
func (s *Session) Optimizer() *scan.Optimizer { return s.optimizer }

// Selector returns the calibration target strategy.
func (s *Session) Selector() calibration.Selector { return s.selector }

// Circuits returns the current catalog.
func (s *Session) Circuits() *domain.CircuitMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.circuits
}

// SetCircuits replaces the catalog.
func (s *Session) SetCircuits(m *domain.CircuitMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.circuits = m
}

// LoadCircuits parses a catalog file and makes it current. On error the
// previous catalog is kept.
func (s *Session) LoadCircuits(path string) (*catalog.Report, error) {
	m, rep, err := catalog.LoadFile(path, catalog.WithLogger(s.logger))
	if err != nil {
		return rep, err
	}
	s.SetCircuits(m)
	return rep, nil
}

// CalibrationTargets returns the three circuits to calibrate against, in order.
func (s *Session) CalibrationTargets() ([]*domain.Circuit, error) {
	return s.selector.Select(s.Circuits())
}

// Calibrate solves the calibration from the stage positions observed for the
// three targets, installs it and persists it. A failed solve leaves the
// previous calibration active. A persistence failure is returned after the
// matrix has been installed.
func (s *Session) Calibrate(ctx context.Context, observed [3]domain.Location) (domain.AffineMatrix, error) {
	targets, err := s.CalibrationTargets()
	if err != nil {
		return domain.AffineMatrix{}, err
	}
	points, err := calibration.Pair(targets, observed[:])
	if err != nil {
		return domain.AffineMatrix{}, err
	}
	m, err := s.calibrator.Solve(points)
	if err != nil {
		s.logger.Warn("Calibration rejected", "err", err)
		return domain.AffineMatrix{}, err
	}
	s.logger.Info("Calibration solved", "matrix", m.String(), "residual", calibration.MaxResidual(m, points))
	return m, s.InstallCalibration(ctx, m)
}

// Centerer obtains the stage position of a calibration target, typically by
// letting an operator jog onto it.
type Centerer interface {
	Center(ctx context.Context, target *domain.Circuit, index int) (domain.Location, error)
}

// CenterFunc adapts a function to Centerer.
type CenterFunc func(ctx context.Context, target *domain.Circuit, index int) (domain.Location, error)

func (f CenterFunc) Center(ctx context.Context, target *domain.Circuit, index int) (domain.Location, error) {
	return f(ctx, target, index)
}

// CalibrateInteractive asks c for each target's stage position, refines it
// when WithTargetRefinement is set, then calibrates.
func (s *Session) CalibrateInteractive(ctx context.Context, c Centerer) (domain.AffineMatrix, error) {
	targets, err := s.CalibrationTargets()
	if err != nil {
		return domain.AffineMatrix{}, err
	}
	if len(targets) != 3 {
		return domain.AffineMatrix{}, fmt.Errorf("%w: got %d targets", domain.ErrCalibrationInput, len(targets))
	}
	var observed [3]domain.Location
	for i, t := range targets {
		loc, err := c.Center(ctx, t, i)
		if err != nil {
			return domain.AffineMatrix{}, fmt.Errorf("target %d %s: %w", i+1, t.Loc, err)
		}
		if s.refineTargets {
			req := s.auto
			req.Center, req.Coords = loc, scan.StageCoords
			res, err := s.AutoScan(ctx, req)
			if err != nil {
				return domain.AffineMatrix{}, fmt.Errorf("target %d %s: %w", i+1, t.Loc, err)
			}
			loc = res.Location
		}
		s.logger.Info("Calibration target", "index", i+1, "design", t.Loc.String(), "stage", loc.String())
		observed[i] = loc
	}
	return s.Calibrate(ctx, observed)
}

// InstallCalibration makes m active and persists it when a store is attached.
func (s *Session) InstallCalibration(ctx context.Context, m domain.AffineMatrix) error {
	if err := s.transformer.SetCalibration(m); err != nil {
		return err
	}
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, s.profile, m); err != nil {
		return fmt.Errorf("calibration installed but not saved: %w", err)
	}
	return nil
}

// RestoreCalibration installs the stored calibration of the profile.
func (s *Session) RestoreCalibration(ctx context.Context) error {
	if s.store == nil {
		return domain.ErrCalibrationNotFound
	}
	m, err := s.store.Load(ctx, s.profile)
	if err != nil {
		return err
	}
	if err := s.transformer.SetCalibration(m); err != nil {
		return err
	}
	s.logger.Info("Calibration restored", "profile", s.profile)
	return nil
}

// ToStage converts a design point to a stage point.
func (s *Session) ToStage(design domain.Location) (domain.Location, error) {
	return s.transformer.ToStageLocation(design)
}

// ToDesign converts a stage point to a design point.
func (s *Session) ToDesign(st domain.Location) (domain.Location, error) {
	x, y, err := s.transformer.ToDesign(st.X, st.Y)
	return domain.Loc(x, y), err
}

func (s *Session) needStage() error {
	if s.stage == nil {
		return fmt.Errorf("%w: no stage attached", domain.ErrAxisUnavailable)
	}
	return nil
}

func (s *Session) needOptimizer() error {
	if s.optimizer == nil {
		return fmt.Errorf("%w: scanning needs a stage and an acquisition unit", domain.ErrAxisUnavailable)
	}
	return nil
}

// Visit moves to a circuit and, with refine, optimizes the coupling around it.
// It returns the final stage position.
func (s *Session) Visit(ctx context.Context, c *domain.Circuit, refine bool) (domain.Location, error) {
	if err := s.needStage(); err != nil {
		return domain.Location{}, err
	}
	if refine {
		if err := s.needOptimizer(); err != nil {
			return domain.Location{}, err
		}
	}
	var out domain.Location
	err := s.axes.WithAxes(ctx, planar, func(ctx context.Context) error {
		loc, err := s.stage.GoToCircuit(ctx, c)
		if err != nil {
			return err
		}
		out = loc
		if !refine {
			return nil
		}
		req := s.auto
		req.Center, req.Coords = loc, scan.StageCoords
		res, err := s.optimizer.AutoScan(ctx, req)
		if err != nil {
			return err
		}
		out = res.Location
		return nil
	})
	return out, err
}

// BoxScan runs a box scan holding the planar axes.
func (s *Session) BoxScan(ctx context.Context, req scan.BoxRequest) (scan.BoxResult, error) {
	var res scan.BoxResult
	if err := s.needOptimizer(); err != nil {
		return res, err
	}
	err := s.axes.WithAxes(ctx, planar, func(ctx context.Context) error {
		var err error
		res, err = s.optimizer.BoxScan(ctx, req)
		return err
	})
	return res, err
}

// LineScan runs a line scan holding its axis.
func (s *Session) LineScan(ctx context.Context, req scan.LineRequest) (scan.LineResult, error) {
	var res scan.LineResult
	if err := s.needOptimizer(); err != nil {
		return res, err
	}
	err := s.axes.WithAxis(ctx, req.Axis, func(ctx context.Context) error {
		var err error
		res, err = s.optimizer.LineScan(ctx, req)
		return err
	})
	return res, err
}

// AutoScan runs an auto scan holding the planar axes. Zero fields of req take
// the session defaults.
func (s *Session) AutoScan(ctx context.Context, req scan.AutoRequest) (scan.AutoResult, error) {
	var res scan.AutoResult
	if err := s.needOptimizer(); err != nil {
		return res, err
	}
	req = s.withDefaults(req)
	err := s.axes.WithAxes(ctx, planar, func(ctx context.Context) error {
		var err error
		res, err = s.optimizer.AutoScan(ctx, req)
		return err
	})
	return res, err
}

func (s *Session) withDefaults(req scan.AutoRequest) scan.AutoRequest {
	d := s.auto
	if req.Span == 0 {
		req.Span = d.Span
	}
	if req.CoarseStep == 0 {
		req.CoarseStep = d.CoarseStep
	}
	if req.FineSpan == 0 {
		req.FineSpan = d.FineSpan
	}
	if req.FineStep == 0 {
		req.FineStep = d.FineStep
	}
	if req.MaxNonImproving == 0 {
		req.MaxNonImproving = d.MaxNonImproving
	}
	if req.Settle == 0 {
		req.Settle = d.Settle
	}
	return req
}

// RunExperiment runs exp over m, refining each circuit when refine is set.
func (s *Session) RunExperiment(ctx context.Context, m *domain.CircuitMap, exp experiment.Experiment, refine bool) (*experiment.Report, error) {
	if err := s.needStage(); err != nil {
		return nil, err
	}
	opts := []experiment.Option{experiment.WithLocker(s.axes), experiment.WithLogger(s.logger)}
	if refine {
		if err := s.needOptimizer(); err != nil {
			return nil, err
		}
		opts = append(opts, experiment.WithRefine(s.optimizer, s.auto))
	}
	return experiment.NewRunner(s.stage, s.daq, opts...).Run(ctx, m, exp)
}

// Controller returns a keyboard controller for the stage that shares the session's axis locks.
func (s *Session) Controller(opts ...control.Option) (*control.Controller, error) {
	if err := s.needStage(); err != nil {
		return nil, err
	}
	base := []control.Option{control.WithLocker(s.axes), control.WithLogger(s.logger)}
	return control.NewController(s.stage, append(base, opts...)...), nil
}
