package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/gator"
	"github.com/aretw0/gator/internal/presentation/tui"
	"github.com/aretw0/gator/pkg/control"
	"github.com/aretw0/gator/pkg/domain"
)

// Keyboard drives the stage from a key event stream shared by every prompt.
type Keyboard struct {
	Session  *gator.Session
	Events   <-chan control.Event
	Out      io.Writer
	Render   func(string) (string, error)
	Bindings control.Bindings
	Steps    *control.Steps
}

func (k *Keyboard) say(markdown string) {
	text := markdown
	if k.Render != nil {
		if r, err := k.Render(markdown); err == nil {
			text = r
		}
	}
	fmt.Fprint(k.Out, text)
}

// Drive runs a controller until the quit key and returns where the stage ended.
func (k *Keyboard) Drive(ctx context.Context) (domain.Location, error) {
	opts := []control.Option{
		control.WithBindings(k.Bindings),
		control.WithHelp(k.say),
	}
	if k.Steps != nil {
		opts = append(opts, control.WithSteps(*k.Steps))
	}
	ctrl, err := k.Session.Controller(opts...)
	if err != nil {
		return domain.Location{}, err
	}
	return ctrl.Run(ctx, k.Events)
}

// Center implements gator.Centerer by letting the operator jog onto each target.
func (k *Keyboard) Center(ctx context.Context, target *domain.Circuit, index int) (domain.Location, error) {
	k.say(fmt.Sprintf("## Target %d of 3\n\nCenter on **%s** and press `%s`. Press `%s` for keys.\n",
		index+1, target, k.Bindings[control.Quit], k.Bindings[control.Help]))
	loc, err := k.Drive(ctx)
	if err != nil {
		return loc, err
	}
	k.say(fmt.Sprintf("Recorded stage position `%s`.\n", loc))
	return loc, nil
}

// interruptible forwards events until ctrl+c, which calls cancel instead so
// a controller does not take it for a normal quit.
func interruptible(ctx context.Context, in <-chan control.Event, cancel func()) <-chan control.Event {
	out := make(chan control.Event)
	go func() {
		defer close(out)
		for ev := range in {
			if ev.Key == control.KeyInterrupt {
				cancel()
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Interactive opens the terminal key stream for env. It returns a Keyboard, a
// context cancelled by ctrl+c, and the function restoring the terminal.
func Interactive(ctx context.Context, env *Env, out io.Writer) (*Keyboard, context.Context, func() error, error) {
	src := control.NewTerminalKeySource()
	if !src.IsTerminal() {
		return nil, nil, nil, fmt.Errorf("interactive control needs a terminal")
	}
	ctx, cancel := context.WithCancel(ctx)
	events, restore, err := src.Events(ctx)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	done := func() error {
		cancel()
		return restore()
	}
	return &Keyboard{
		Session:  env.Session,
		Events:   interruptible(ctx, events, cancel),
		Out:      crlf{w: out},
		Render:   tui.NewRenderer(),
		Bindings: env.Profile.KeyBindings(),
		Steps:    env.Profile.Steps,
	}, ctx, done, nil
}

// RunCalibrate centers the three targets from the keyboard, optionally
// refining each with an auto scan, then solves and persists the calibration.
func RunCalibrate(ctx context.Context, env *Env, out io.Writer) error {
	targets, err := env.Session.CalibrationTargets()
	if err != nil {
		return err
	}
	printSystemMessage(out, "Calibrating profile %q with %s targets:", env.Session.Profile(), env.Session.Selector().Name())
	for i, t := range targets {
		fmt.Fprintf(out, "  %d. %s\n", i+1, t)
	}

	kb, kctx, restore, err := Interactive(ctx, env, out)
	if err != nil {
		return err
	}
	m, err := env.Session.CalibrateInteractive(kctx, kb)
	if rerr := restore(); rerr != nil {
		env.Logger.Warn("Could not restore terminal", "err", rerr)
	}
	if errors.Is(err, context.Canceled) {
		printSystemMessage(out, "Calibration aborted, previous calibration kept")
		return nil
	}
	if err != nil {
		return err
	}
	printSystemMessage(out, "Calibration saved:\n%s", m)
	return nil
}

// RunJog hands the stage to the keyboard until the quit key.
func RunJog(ctx context.Context, env *Env, out io.Writer) error {
	kb, kctx, restore, err := Interactive(ctx, env, out)
	if err != nil {
		return err
	}
	defer restore()
	kb.say(control.HelpMarkdown(kb.Bindings))
	loc, err := kb.Drive(kctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(kb.Out, "Stage at %s\n", loc)
	if design, err := env.Session.ToDesign(loc); err == nil {
		fmt.Fprintf(kb.Out, "Design  %s\n", design)
	}
	return nil
}
