package sim

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// SignalFunc returns the simulated signal at the physical (x, y) position.
type SignalFunc func(x, y float64) float64

// Gaussian returns a single-peak signal centred on (cx, cy).
func Gaussian(cx, cy, width, peak float64) SignalFunc {
	return func(x, y float64) float64 {
		d2 := (x-cx)*(x-cx) + (y-cy)*(y-cy)
		return peak * math.Exp(-d2/(2*width*width))
	}
}

// Locator reports a physical axis position. *Motor implements it.
type Locator interface {
	Actual() float64
}

// DAQ is a simulated acquisition unit that samples Signal at the physical
// position of its X and Y axes. A nil axis reads as zero.
type DAQ struct {
	X, Y   Locator
	Signal SignalFunc
	// TraceLength is the number of samples Acquire captures per channel.
	TraceLength int

	OnMeasure func() error

	mu           sync.Mutex
	measurements int
	acquisitions int
	trace        []float64
}

// NewDAQ constructs a DAQ reading signal at the position of x and y.
func NewDAQ(x, y Locator, signal SignalFunc) *DAQ {
	return &DAQ{X: x, Y: y, Signal: signal, TraceLength: 16}
}

func (d *DAQ) sample() float64 {
	var x, y float64
	if d.X != nil {
		x = d.X.Actual()
	}
	if d.Y != nil {
		y = d.Y.Actual()
	}
	if d.Signal == nil {
		return 0
	}
	return d.Signal(x, y)
}

func (d *DAQ) Measure(ctx context.Context) (float64, error) {
	if d.OnMeasure != nil {
		if err := d.OnMeasure(); err != nil {
			return 0, err
		}
	}
	d.mu.Lock()
	d.measurements++
	d.mu.Unlock()
	return d.sample(), nil
}

func (d *DAQ) Acquire(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v := d.sample()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acquisitions++
	d.trace = make([]float64, max(d.TraceLength, 1))
	for i := range d.trace {
		d.trace[i] = v
	}
	return nil
}

func (d *DAQ) Data(ctx context.Context, channel int) ([]float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if channel != 1 {
		return nil, fmt.Errorf("sim daq: no channel %d", channel)
	}
	if d.trace == nil {
		return nil, fmt.Errorf("sim daq: nothing acquired")
	}
	return append([]float64(nil), d.trace...), nil
}

// Measurements returns how many times Measure was called.
func (d *DAQ) Measurements() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.measurements
}
