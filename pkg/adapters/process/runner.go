package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/experiment"
)

// Result is the output of the run step for one circuit. Output holds the
// decoded JSON when stdout is a JSON object or array, else the trimmed text.
type Result struct {
	Circuit *domain.Circuit
	Stage   domain.Location
	Output  any
}

// Experiment implements experiment.Experiment by executing external commands.
//
// Circuit data is passed as environment variables, never as command flags:
// GATOR_X and GATOR_Y (design), GATOR_STAGE_X and GATOR_STAGE_Y, and
// GATOR_PARAM_<KEY> for each circuit parameter.
type Experiment struct {
	cfg *Config

	mu      sync.Mutex
	results []Result
}

var _ experiment.Experiment = (*Experiment)(nil)

// New creates an Experiment from cfg.
func New(cfg *Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Name returns the configured name.
func (e *Experiment) Name() string { return e.cfg.Name }

func (e *Experiment) Setup(ctx context.Context, env *experiment.Env) error {
	e.mu.Lock()
	e.results = nil
	e.mu.Unlock()
	if e.cfg.Setup == nil {
		return nil
	}
	_, err := e.exec(ctx, "setup", *e.cfg.Setup, nil)
	return err
}

func (e *Experiment) Run(ctx context.Context, env *experiment.Env, c *domain.Circuit) error {
	vars := circuitEnv(c)
	stage, err := env.Stage.XY(ctx)
	if err != nil {
		return err
	}
	vars = append(vars, "GATOR_STAGE_X="+formatFloat(stage.X), "GATOR_STAGE_Y="+formatFloat(stage.Y))

	out, err := e.exec(ctx, "run", e.cfg.Run, vars)
	if err != nil {
		return err
	}
	env.Logger.Info("Process output", "circuit", c.String(), "output", out)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.results = append(e.results, Result{Circuit: c, Stage: stage, Output: out})
	return nil
}

func (e *Experiment) Teardown(ctx context.Context, env *experiment.Env) error {
	if e.cfg.Teardown == nil {
		return nil
	}
	_, err := e.exec(ctx, "teardown", *e.cfg.Teardown, nil)
	return err
}

// Results returns the outputs collected so far.
func (e *Experiment) Results() []Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Result(nil), e.results...)
}

// ExecError reports a failed step with its stderr.
type ExecError struct {
	Step   string
	Err    error
	Stderr string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s step failed: %v. Stderr: %s", e.Step, e.Err, strings.TrimSpace(e.Stderr))
}

func (e *ExecError) Unwrap() error { return e.Err }

func (e *Experiment) exec(ctx context.Context, name string, step Step, vars []string) (any, error) {
	cmd := exec.CommandContext(ctx, step.Command, step.Args...)
	cmd.Dir = e.cfg.Dir
	env := cmd.Environ()
	for k, v := range step.Environment {
		env = append(env, k+"="+v)
	}
	cmd.Env = append(env, vars...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ExecError{Step: name, Err: err, Stderr: stderr.String()}
	}
	return decodeOutput(stdout.String()), nil
}

func decodeOutput(output string) any {
	trimmed := strings.TrimSpace(output)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return trimmed
}

func circuitEnv(c *domain.Circuit) []string {
	vars := []string{"GATOR_X=" + formatFloat(c.Loc.X), "GATOR_Y=" + formatFloat(c.Loc.Y)}
	for _, k := range c.Params.Keys() {
		vars = append(vars, "GATOR_PARAM_"+envKey(k)+"="+c.Params[k])
	}
	return vars
}

// envKey upper-cases k and replaces anything but letters and digits with '_'.
func envKey(k string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, k)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
