package calibration

import (
	"fmt"
	"sync/atomic"

	"github.com/aretw0/gator/pkg/domain"
)

// Transformer owns the active calibration matrix and converts between design
// and stage space. It is safe for concurrent use; a new calibration replaces
// the previous one atomically.
type Transformer struct {
	matrix atomic.Pointer[domain.AffineMatrix]
}

// NewTransformer returns an uncalibrated Transformer.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// SetCalibration installs m, replacing any previous matrix.
func (t *Transformer) SetCalibration(m domain.AffineMatrix) error {
	if err := m.Validate(); err != nil {
		return err
	}
	t.matrix.Store(&m)
	return nil
}

// Clear removes the active matrix.
func (t *Transformer) Clear() {
	t.matrix.Store(nil)
}

// Calibration returns the active matrix, if any.
func (t *Transformer) Calibration() (domain.AffineMatrix, bool) {
	m := t.matrix.Load()
	if m == nil {
		return domain.AffineMatrix{}, false
	}
	return *m, true
}

// Calibrated reports whether a matrix is installed.
func (t *Transformer) Calibrated() bool {
	return t.matrix.Load() != nil
}

// ToStage maps a design-space point to stage space.
// It fails with domain.ErrUncalibrated when no matrix is installed.
func (t *Transformer) ToStage(x, y float64) (float64, float64, error) {
	m := t.matrix.Load()
	if m == nil {
		return 0, 0, fmt.Errorf("convert (%g, %g) to stage: %w", x, y, domain.ErrUncalibrated)
	}
	sx, sy := m.Apply(x, y)
	return sx, sy, nil
}

// ToStageLocation is ToStage for a Location.
func (t *Transformer) ToStageLocation(l domain.Location) (domain.Location, error) {
	x, y, err := t.ToStage(l.X, l.Y)
	return domain.Loc(x, y), err
}

// ToDesign maps a stage-space point back to design space through the inverse matrix.
func (t *Transformer) ToDesign(sx, sy float64) (float64, float64, error) {
	m := t.matrix.Load()
	if m == nil {
		return 0, 0, fmt.Errorf("convert (%g, %g) to design: %w", sx, sy, domain.ErrUncalibrated)
	}
	inv, err := m.Inverse()
	if err != nil {
		return 0, 0, err
	}
	x, y := inv.Apply(sx, sy)
	return x, y, nil
}
