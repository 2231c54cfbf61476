package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aretw0/gator/pkg/adapters/process"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/experiment"
)

// BatchOptions selects the circuits of a batch and how each is measured.
type BatchOptions struct {
	Filter  FilterOptions
	Refine  bool
	Channel int
	Timeout time.Duration
	// Exec is an experiment file run at every circuit instead of logging the signal.
	Exec string
}

// RunBatch visits every selected circuit of the session catalog and logs the
// signal there, or the output of the Exec experiment.
func RunBatch(ctx context.Context, env *Env, out io.Writer, opts BatchOptions) error {
	m := opts.Filter.apply(env.Session.Circuits())
	if m.Len() == 0 {
		return fmt.Errorf("no circuits selected")
	}

	var (
		exp    experiment.Experiment
		column string
		result func(i int, v experiment.Visit) string
	)
	if opts.Exec != "" {
		cfg, err := process.LoadConfig(opts.Exec)
		if err != nil {
			return err
		}
		proc := process.New(cfg)
		exp, column = proc, "OUTPUT"
		result = func(i int, v experiment.Visit) string {
			res := proc.Results()
			if i >= len(res) {
				return "-"
			}
			return formatOutput(res[i].Output)
		}
		printSystemMessage(out, "Running %q on %d circuits (refine=%t)", cfg.Name, m.Len(), opts.Refine)
	} else {
		log := &experiment.SignalLog{Channel: opts.Channel, Timeout: opts.Timeout}
		exp, column = log, "SIGNAL"
		result = func(i int, v experiment.Visit) string {
			signal := v.Signal
			if readings := log.Readings(); i < len(readings) {
				signal = readings[i].Value
			}
			return fmt.Sprintf("%.6g", signal)
		}
		printSystemMessage(out, "Measuring %d circuits (refine=%t)", m.Len(), opts.Refine)
	}

	rep, err := env.Session.RunExperiment(ctx, m, exp, opts.Refine)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "NAME\tDESIGN\tSTAGE\t%s\tTIME\n", column)
	if rep != nil {
		for i, v := range rep.Visits {
			name, _ := v.Circuit.Param(domain.KeyName)
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", name, v.Circuit.Loc, v.Stage, result(i, v), v.Duration.Round(time.Millisecond))
		}
	}
	if ferr := tw.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func formatOutput(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
