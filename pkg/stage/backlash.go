package stage

import (
	"context"

	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/ports"
)

// OvershootFactor scales the backlash distance used when approaching from above.
const OvershootFactor = 1.5

// Backlash decorates a Motor so absolute moves always finish travelling in the
// positive direction. A target below the current position is approached by
// first overshooting to target - OvershootFactor*Amount.
type Backlash struct {
	ports.Motor
	Amount float64
}

// WithBacklash wraps m. An Amount of zero disables compensation.
func WithBacklash(m ports.Motor, amount float64) *Backlash {
	return &Backlash{Motor: m, Amount: amount}
}

func (b *Backlash) MoveTo(ctx context.Context, pos float64) error {
	if b.Amount > 0 {
		cur, err := b.Motor.Position(ctx)
		if err != nil {
			return err
		}
		if pos < cur {
			if err := b.Motor.MoveTo(ctx, pos-OvershootFactor*b.Amount); err != nil {
				return err
			}
		}
	}
	return b.Motor.MoveTo(ctx, pos)
}

// ApproachFromBelow moves m to pos so that the final travel is positive,
// regardless of where the motor currently is. It always overshoots by
// OvershootFactor*amount below pos first; with amount zero it moves directly.
func ApproachFromBelow(ctx context.Context, m ports.Motor, pos, amount float64) error {
	if amount > 0 {
		if err := m.MoveTo(ctx, pos-OvershootFactor*amount); err != nil {
			return err
		}
	}
	return m.MoveTo(ctx, pos)
}

var _ ports.Motor = (*Backlash)(nil)

// sign maps a direction onto ±1.
func sign(d domain.Direction) float64 {
	if d == domain.Backward {
		return -1
	}
	return 1
}
