package control

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/gator/internal/logging"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/ports"
)

// Stage is the part of a stage the controller drives. *stage.Stage implements it.
type Stage interface {
	Axis(axis domain.Axis) (ports.Motor, error)
	XY(ctx context.Context) (domain.Location, error)
	StopAll(ctx context.Context) error
	HomeAll(ctx context.Context) error
}

// AxisLocker serializes commands per axis. *session.Manager implements it.
type AxisLocker interface {
	WithAxes(ctx context.Context, axes []domain.Axis, fn func(context.Context) error) error
}

// Steps are the jog increments in motor units.
type Steps struct {
	Linear     float64 `yaml:"linear" json:"linear"`
	Vertical   float64 `yaml:"vertical" json:"vertical"`
	Rotational float64 `yaml:"rotational" json:"rotational"`
}

// DefaultSteps returns the stock jog increments.
func DefaultSteps() Steps {
	return Steps{Linear: 0.1, Vertical: 0.1, Rotational: 0.1}
}

func (s Steps) scale(f float64) Steps {
	return Steps{Linear: s.Linear * f, Vertical: s.Vertical * f, Rotational: s.Rotational * f}
}

// Controller maps key events to stage commands.
type Controller struct {
	stage    Stage
	bindings Bindings
	steps    Steps
	debounce *Debouncer
	locker   AxisLocker
	confirm  func(prompt string) bool
	help     func(markdown string)
	logger   *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithBindings replaces the default key layout.
func WithBindings(b Bindings) Option {
	return func(c *Controller) {
		c.bindings = b
	}
}

// WithSteps sets the initial jog increments.
func WithSteps(s Steps) Option {
	return func(c *Controller) {
		c.steps = s
	}
}

// WithThreshold sets the debounce threshold.
func WithThreshold(n int) Option {
	return func(c *Controller) {
		c.debounce.Threshold = n
	}
}

// WithLocker runs every motor command under the axis lock.
func WithLocker(l AxisLocker) Option {
	return func(c *Controller) {
		c.locker = l
	}
}

// WithConfirm asks before homing. Without it homing proceeds directly.
func WithConfirm(fn func(prompt string) bool) Option {
	return func(c *Controller) {
		c.confirm = fn
	}
}

// WithHelp receives the help text when the help key is pressed.
func WithHelp(fn func(markdown string)) Option {
	return func(c *Controller) {
		c.help = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a Controller for stage.
func NewController(stage Stage, opts ...Option) *Controller {
	c := &Controller{
		stage:    stage,
		bindings: DefaultBindings(),
		steps:    DefaultSteps(),
		debounce: NewDebouncer(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Steps returns the current jog increments.
func (c *Controller) Steps() Steps {
	return c.steps
}

type move struct {
	axis domain.Axis
	dir  domain.Direction
}

func (c *Controller) continuous(a Action) (move, bool) {
	switch a {
	case MoveLeft:
		return move{domain.AxisX, domain.Backward}, true
	case MoveRight:
		return move{domain.AxisX, domain.Forward}, true
	case MoveUp:
		return move{domain.AxisY, domain.Forward}, true
	case MoveDown:
		return move{domain.AxisY, domain.Backward}, true
	case MoveRaise:
		return move{domain.AxisZ, domain.Forward}, true
	case MoveLower:
		return move{domain.AxisZ, domain.Backward}, true
	}
	return move{}, false
}

func (c *Controller) jog(a Action) (domain.Axis, float64, bool) {
	switch a {
	case JogLeft:
		return domain.AxisX, -c.steps.Linear, true
	case JogRight:
		return domain.AxisX, c.steps.Linear, true
	case JogUp:
		return domain.AxisY, c.steps.Linear, true
	case JogDown:
		return domain.AxisY, -c.steps.Linear, true
	case JogRaise:
		return domain.AxisZ, c.steps.Vertical, true
	case JogLower:
		return domain.AxisZ, -c.steps.Vertical, true
	case JogClockwise:
		return domain.AxisPsi, c.steps.Rotational, true
	case JogCounterclockwise:
		return domain.AxisPsi, -c.steps.Rotational, true
	}
	return "", 0, false
}

func (c *Controller) withAxes(ctx context.Context, axes []domain.Axis, fn func(context.Context) error) error {
	if c.locker == nil {
		return fn(ctx)
	}
	return c.locker.WithAxes(ctx, axes, fn)
}

func (c *Controller) onAxis(ctx context.Context, axis domain.Axis, op string, fn func(context.Context, ports.Motor) error) error {
	m, err := c.stage.Axis(axis)
	if err != nil {
		return err
	}
	return c.withAxes(ctx, []domain.Axis{axis}, func(ctx context.Context) error {
		if err := fn(ctx, m); err != nil {
			return &domain.HardwareError{Device: string(axis), Op: op, Err: err}
		}
		return nil
	})
}

// Run consumes events until the quit key, the end of the channel or ctx.
// It returns the planar stage position at exit. Command failures are logged
// and the loop keeps going. A held axis is always
// stopped before Run returns.
func (c *Controller) Run(ctx context.Context, events <-chan Event) (domain.Location, error) {
	defer c.release(context.WithoutCancel(ctx))

	for {
		select {
		case <-ctx.Done():
			return domain.Location{}, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				c.release(ctx)
				return c.stage.XY(ctx)
			}
			if quit := c.handle(ctx, ev); quit {
				c.release(ctx)
				return c.stage.XY(ctx)
			}
		}
	}
}

func (c *Controller) release(ctx context.Context) {
	c.transition(ctx, c.debounce.Release())
}

func (c *Controller) handle(ctx context.Context, ev Event) (quit bool) {
	action, ok := c.bindings.Resolve(ev.Key)
	if !ok {
		return false
	}
	if action.Continuous() {
		c.transition(ctx, c.debounce.Feed(ev))
		return false
	}
	if !ev.Pressed {
		return false
	}
	if st, _ := c.debounce.State(); st == Active && action != StopAll && action != Quit {
		return false
	}

	c.logger.Debug("Key", "key", ev.Key, "action", action)
	var err error
	switch action {
	case Quit:
		return true
	case Help:
		if c.help != nil {
			c.help(HelpMarkdown(c.bindings))
		}
	case StopAll:
		c.debounce.Release()
		err = c.stage.StopAll(ctx)
	case Home:
		if c.confirm != nil && !c.confirm("Home every axis?") {
			return false
		}
		err = c.withAxes(ctx, domain.Axes, c.stage.HomeAll)
		if err == nil {
			c.logger.Info("Homing complete")
		}
	case StepLarger:
		c.steps = c.steps.scale(10)
		c.logger.Info("Jog step", "linear", c.steps.Linear, "vertical", c.steps.Vertical, "rotational", c.steps.Rotational)
	case StepSmaller:
		c.steps = c.steps.scale(0.1)
		c.logger.Info("Jog step", "linear", c.steps.Linear, "vertical", c.steps.Vertical, "rotational", c.steps.Rotational)
	default:
		if axis, delta, ok := c.jog(action); ok {
			err = c.onAxis(ctx, axis, "move_by", func(ctx context.Context, m ports.Motor) error {
				return m.MoveBy(ctx, delta)
			})
		}
	}
	c.report(action, err)
	return false
}

func (c *Controller) transition(ctx context.Context, tr Transition) {
	if !tr.Start && !tr.End {
		return
	}
	action, _ := c.bindings.Resolve(tr.Key)
	mv, ok := c.continuous(action)
	if !ok {
		return
	}
	var err error
	if tr.Start {
		err = c.onAxis(ctx, mv.axis, "move_cont", func(ctx context.Context, m ports.Motor) error {
			return m.MoveCont(ctx, mv.dir)
		})
	} else {
		err = c.onAxis(ctx, mv.axis, "stop", func(ctx context.Context, m ports.Motor) error {
			return m.Stop(ctx)
		})
	}
	c.report(action, err)
}

func (c *Controller) report(action Action, err error) {
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAxisUnavailable):
		c.logger.Warn("Key ignored", "action", action, "err", err)
	default:
		c.logger.Error("Stage command failed", "action", action, "err", err)
	}
}
