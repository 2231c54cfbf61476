package ports

import (
	"context"

	"github.com/aretw0/gator/pkg/domain"
)

// CalibrationStore persists the calibration matrix of each stage profile,
// so a calibration survives across sessions.
type CalibrationStore interface {
	// Save persists the matrix for a profile, replacing any previous one.
	Save(ctx context.Context, profile string, m domain.AffineMatrix) error

	// Load retrieves the matrix for a profile.
	// Returns domain.ErrCalibrationNotFound if none was saved.
	Load(ctx context.Context, profile string) (domain.AffineMatrix, error)

	// Delete removes the matrix for a profile. Deleting a missing entry is not an error.
	Delete(ctx context.Context, profile string) error

	// List returns the profiles that have a stored matrix.
	List(ctx context.Context) ([]string, error)
}
