package ports

import (
	"context"
	"time"

	"github.com/aretw0/gator/pkg/domain"
)

// Motor is the capability set of a single positioning axis.
// Implementations block until the commanded motion has completed.
type Motor interface {
	// MoveTo moves to an absolute position in motor units.
	MoveTo(ctx context.Context, pos float64) error

	// MoveBy moves relative to the current position.
	MoveBy(ctx context.Context, delta float64) error

	// MoveCont starts a continuous move that lasts until Stop.
	MoveCont(ctx context.Context, dir domain.Direction) error

	// Stop halts any motion.
	Stop(ctx context.Context) error

	// Position reports the current position in motor units.
	Position(ctx context.Context) (float64, error)

	// Home runs the homing sequence.
	Home(ctx context.Context) error
}

// DataAcquisitionUnit is the capability set of a signal source.
type DataAcquisitionUnit interface {
	// Measure returns one scalar reading of the optimized signal.
	Measure(ctx context.Context) (float64, error)

	// Acquire arms the unit and waits up to timeout for a capture.
	Acquire(ctx context.Context, timeout time.Duration) error

	// Data returns the last captured trace of a channel.
	Data(ctx context.Context, channel int) ([]float64, error)
}
