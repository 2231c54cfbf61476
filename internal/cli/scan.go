package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/scan"
)

// ScanOptions describes a scan from the command line.
type ScanOptions struct {
	// At is the scan center; the current stage position when nil.
	At *domain.Location
	// Design reads At in design coordinates.
	Design bool
	// Box runs a single box scan of Span at Step instead of an auto scan.
	Box  bool
	Span float64
	Step float64
}

// RunScan scans around a point and reports the best position found.
func RunScan(ctx context.Context, env *Env, out io.Writer, opts ScanOptions) error {
	sess := env.Session
	opt := sess.Optimizer()
	if opt == nil {
		return fmt.Errorf("%w: profile %q has no acquisition unit", domain.ErrAxisUnavailable, sess.Profile())
	}

	center, err := opt.Here(ctx)
	if err != nil {
		return err
	}
	if opts.At != nil {
		center = *opts.At
		if opts.Design {
			if center, err = sess.ToStage(center); err != nil {
				return err
			}
		}
	}

	if opts.Box {
		span, step := opts.Span, opts.Step
		if span <= 0 {
			span = scan.DefaultSpan
		}
		if step <= 0 {
			step = scan.DefaultCoarseStep
		}
		x, y := scan.Window(center, span, span)
		res, err := sess.BoxScan(ctx, scan.BoxRequest{X: x, Y: y, StepX: step, StepY: step, GoToMax: true})
		if err != nil {
			return err
		}
		printSystemMessage(out, "Box scan: %d samples, best %.6g at stage %s", res.Samples, res.Value, res.Stage)
		return nil
	}

	res, err := sess.AutoScan(ctx, scan.AutoRequest{
		Center:     center,
		Span:       opts.Span,
		CoarseStep: opts.Step,
	})
	if err != nil {
		return err
	}
	printSystemMessage(out, "Auto scan: coarse %.6g at %s, refined %.6g at stage %s",
		res.Coarse.Value, res.Coarse.Stage, res.Value, res.Location)
	if design, err := sess.ToDesign(res.Location); err == nil {
		printSystemMessage(out, "Design position %s", design)
	}
	return nil
}
