package domain

import (
	"errors"
	"fmt"
)

// ErrCircuitNotFound is returned when no circuit exists at the requested location.
var ErrCircuitNotFound = errors.New("circuit not found")

// ErrCalibrationInput is returned when a calibration is attempted with other than three correspondences.
var ErrCalibrationInput = errors.New("calibration requires exactly three correspondences")

// ErrCalibrationSingular is returned when the design points are collinear or too close to it.
var ErrCalibrationSingular = errors.New("calibration points are collinear or ill-conditioned")

// ErrUncalibrated is returned when a design-space conversion is attempted with no matrix installed.
var ErrUncalibrated = errors.New("stage is not calibrated")

// ErrCalibrationNotFound is returned when a calibration store holds no matrix for a profile.
var ErrCalibrationNotFound = errors.New("calibration not found")

// ErrAxisUnavailable is returned when an operation addresses an axis the stage does not have.
var ErrAxisUnavailable = errors.New("axis not available")

// ErrInvalidScan is returned when scan bounds or step sizes cannot describe a finite grid.
var ErrInvalidScan = errors.New("invalid scan parameters")

// ErrProfileNotFound is returned when a named stage profile does not exist.
var ErrProfileNotFound = errors.New("profile not found")

// ErrProfileExists is returned when saving a new profile under a name already in use.
var ErrProfileExists = errors.New("profile already exists")

// ErrUnknownDriver is returned when a profile names a driver no registry knows.
var ErrUnknownDriver = errors.New("unknown driver")

// ErrInvalidProfile is returned for profile names that are empty, reserved or not usable as a file name.
var ErrInvalidProfile = errors.New("invalid profile name")

// ParseFormatError describes a catalog line that is not blank, a comment or a circuit record.
// It is recoverable: loaders log it, skip the line and continue.
type ParseFormatError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseFormatError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// DuplicateLocationError reports two catalog lines describing the same Location.
// It aborts the load.
type DuplicateLocationError struct {
	Loc        Location
	FirstLine  int
	SecondLine int
}

func (e *DuplicateLocationError) Error() string {
	return fmt.Sprintf("duplicate location %s not allowed (lines %d, %d)", e.Loc, e.FirstLine, e.SecondLine)
}

// HardwareError wraps a failure reported by a motor or acquisition unit.
// The driver error is kept verbatim and is reachable through errors.Is/As.
type HardwareError struct {
	Device string
	Op     string
	Err    error
}

func (e *HardwareError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Device, e.Op, e.Err)
}

func (e *HardwareError) Unwrap() error {
	return e.Err
}
