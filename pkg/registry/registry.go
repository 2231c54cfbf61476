// Package registry maps driver tags used in stage profiles to constructors.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// MotorFactory builds a motor from the parameters of a profile entry.
type MotorFactory func(params map[string]any) (ports.Motor, error)

// DAQFactory builds an acquisition unit. It receives the motors built for the
// same profile, before any software compensation is layered on them.
type DAQFactory func(params map[string]any, axes map[domain.Axis]ports.Motor) (ports.DataAcquisitionUnit, error)

// Registry manages the available drivers.
type Registry struct {
	mu     sync.RWMutex
	motors map[string]MotorFactory
	daqs   map[string]DAQFactory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		motors: make(map[string]MotorFactory),
		daqs:   make(map[string]DAQFactory),
	}
}

// RegisterMotor adds a motor driver.
// If a driver with the same tag exists, it is overwritten.
func (r *Registry) RegisterMotor(tag string, fn MotorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.motors[tag] = fn
}

// RegisterDAQ adds an acquisition driver.
func (r *Registry) RegisterDAQ(tag string, fn DAQFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.daqs[tag] = fn
}

// Motor looks up a motor driver by tag and builds it.
func (r *Registry) Motor(tag string, params map[string]any) (ports.Motor, error) {
	r.mu.RLock()
	fn, ok := r.motors[tag]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: motor %q", domain.ErrUnknownDriver, tag)
	}
	return fn(params)
}

// DAQ looks up an acquisition driver by tag and builds it.
func (r *Registry) DAQ(tag string, params map[string]any, axes map[domain.Axis]ports.Motor) (ports.DataAcquisitionUnit, error) {
	r.mu.RLock()
	fn, ok := r.daqs[tag]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: daq %q", domain.ErrUnknownDriver, tag)
	}
	return fn(params, axes)
}

// Drivers lists the registered tags, motors first, each group sorted.
func (r *Registry) Drivers() (motors, daqs []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for k := range r.motors {
		motors = append(motors, k)
	}
	for k := range r.daqs {
		daqs = append(daqs, k)
	}
	sort.Strings(motors)
	sort.Strings(daqs)
	return motors, daqs
}

// Decode copies driver parameters into a typed options struct. Numbers
// written as strings are accepted; unknown keys are an error.
func Decode(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("invalid driver parameters: %w", err)
	}
	return nil
}
