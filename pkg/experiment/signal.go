package experiment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/gator/pkg/domain"
)

// Reading is one SignalLog sample.
type Reading struct {
	Name  string
	Loc   domain.Location
	Value float64
	Trace []float64
}

// SignalLog measures the signal at every circuit. With Channel set it also
// captures a trace of that acquisition channel.
type SignalLog struct {
	Channel int
	Timeout time.Duration

	mu       sync.Mutex
	readings []Reading
}

func (s *SignalLog) Setup(ctx context.Context, env *Env) error {
	if env.DAQ == nil {
		return fmt.Errorf("signal log needs an acquisition unit")
	}
	s.mu.Lock()
	s.readings = nil
	s.mu.Unlock()
	return nil
}

func (s *SignalLog) Run(ctx context.Context, env *Env, c *domain.Circuit) error {
	v, err := env.DAQ.Measure(ctx)
	if err != nil {
		return &domain.HardwareError{Device: "daq", Op: "measure", Err: err}
	}
	name, _ := c.Param(domain.KeyName)
	r := Reading{Name: name, Loc: c.Loc, Value: v}
	if s.Channel > 0 {
		timeout := s.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		if err := env.DAQ.Acquire(ctx, timeout); err != nil {
			return &domain.HardwareError{Device: "daq", Op: "acquire", Err: err}
		}
		if r.Trace, err = env.DAQ.Data(ctx, s.Channel); err != nil {
			return &domain.HardwareError{Device: "daq", Op: "data", Err: err}
		}
	}
	env.Logger.Info("Signal", "circuit", r.Name, "loc", c.Loc.String(), "value", v)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, r)
	return nil
}

func (s *SignalLog) Teardown(ctx context.Context, env *Env) error {
	return nil
}

// Readings returns the samples taken so far.
func (s *SignalLog) Readings() []Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Reading(nil), s.readings...)
}
