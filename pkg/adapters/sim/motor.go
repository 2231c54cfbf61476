package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/gator/pkg/domain"
)

// Op captures one motor command for inspection within tests.
type Op struct {
	Kind string
	Arg  float64
}

// FaultHook lets tests inject driver failures. A non-nil error aborts the command.
type FaultHook func(op Op) error

// Motor is an in-memory positioning axis. It models mechanical backlash: the
// load lags the motor by up to Backlash units after a direction reversal, so
// the physical position depends on the approach direction. Position reports
// the commanded (encoder) position; Actual reports where the load really is.
type Motor struct {
	Name     string
	Backlash float64
	Min, Max float64
	// ContTravel is how far a continuous move travels before Stop.
	ContTravel float64

	OnCommand FaultHook

	mu      sync.Mutex
	pos     float64
	actual  float64
	moving  domain.Direction
	history []Op
}

// NewMotor constructs a simulated axis at position zero with unbounded travel.
func NewMotor(name string) *Motor {
	return &Motor{Name: name, ContTravel: 1}
}

func (m *Motor) record(op Op) error {
	m.history = append(m.history, op)
	if m.OnCommand != nil {
		if err := m.OnCommand(op); err != nil {
			return err
		}
	}
	return nil
}

func (m *Motor) travel(target float64) error {
	if m.Min < m.Max && (target < m.Min || target > m.Max) {
		return fmt.Errorf("sim %s: target %g outside travel [%g, %g]", m.Name, target, m.Min, m.Max)
	}
	if target > m.pos {
		m.actual = max(m.actual, target-m.Backlash)
	} else if target < m.pos {
		m.actual = min(m.actual, target)
	}
	m.pos = target
	return nil
}

func (m *Motor) MoveTo(ctx context.Context, pos float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(Op{Kind: "move_to", Arg: pos}); err != nil {
		return err
	}
	return m.travel(pos)
}

func (m *Motor) MoveBy(ctx context.Context, delta float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(Op{Kind: "move_by", Arg: delta}); err != nil {
		return err
	}
	return m.travel(m.pos + delta)
}

func (m *Motor) MoveCont(ctx context.Context, dir domain.Direction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(Op{Kind: "move_cont", Arg: float64(dir)}); err != nil {
		return err
	}
	m.moving = dir
	return nil
}

func (m *Motor) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(Op{Kind: "stop"}); err != nil {
		return err
	}
	if m.moving != 0 {
		target := m.pos + float64(m.moving)*m.ContTravel
		if m.Min < m.Max {
			target = min(max(target, m.Min), m.Max)
		}
		m.moving = 0
		return m.travel(target)
	}
	return nil
}

func (m *Motor) Position(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OnCommand != nil {
		if err := m.OnCommand(Op{Kind: "position"}); err != nil {
			return 0, err
		}
	}
	return m.pos, nil
}

func (m *Motor) Home(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(Op{Kind: "home"}); err != nil {
		return err
	}
	m.moving = 0
	m.pos, m.actual = 0, 0
	return nil
}

// Actual returns the physical load position.
func (m *Motor) Actual() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.actual
}

// Moving reports the direction of an active continuous move, or 0.
func (m *Motor) Moving() domain.Direction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moving
}

// History returns a copy of every command received.
func (m *Motor) History() []Op {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Op(nil), m.history...)
}

// Count returns how many commands of the given kind were received.
func (m *Motor) Count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, op := range m.history {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Reset clears the command history.
func (m *Motor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = nil
}
