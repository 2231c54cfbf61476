package calibration

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/aretw0/gator/internal/logging"
	"github.com/aretw0/gator/pkg/domain"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultTolerance bounds the normalized triangle area below which the
	// design points count as collinear.
	DefaultTolerance = 1e-9

	// DefaultMaxCondition bounds the condition number of the 6x6 system.
	DefaultMaxCondition = 1e13
)

// Calibrator solves affine calibrations from three correspondences.
type Calibrator struct {
	tolerance    float64
	maxCondition float64
	logger       *slog.Logger
}

// Option configures the Calibrator.
type Option func(*Calibrator)

// WithTolerance overrides the collinearity tolerance.
func WithTolerance(tol float64) Option {
	return func(c *Calibrator) {
		c.tolerance = tol
	}
}

// WithMaxCondition overrides the largest accepted condition number.
func WithMaxCondition(cond float64) Option {
	return func(c *Calibrator) {
		c.maxCondition = cond
	}
}

// WithLogger configures a logger for the Calibrator.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Calibrator) {
		c.logger = logger
	}
}

// NewCalibrator creates a Calibrator with default tolerances.
func NewCalibrator(opts ...Option) *Calibrator {
	c := &Calibrator{
		tolerance:    DefaultTolerance,
		maxCondition: DefaultMaxCondition,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Solve is a convenience wrapper around a default Calibrator.
func Solve(points []domain.CalibrationPoint) (domain.AffineMatrix, error) {
	return NewCalibrator().Solve(points)
}

// Solve returns the matrix M with M·[x y 1]ᵗ = [u v 1]ᵗ for each of the three
// correspondences. It fails with domain.ErrCalibrationInput for any other
// count and with domain.ErrCalibrationSingular when either the design or the
// stage points are (nearly) collinear. The checks are explicit, before the solve.
func (c *Calibrator) Solve(points []domain.CalibrationPoint) (domain.AffineMatrix, error) {
	if len(points) != 3 {
		return domain.AffineMatrix{}, fmt.Errorf("%w: got %d", domain.ErrCalibrationInput, len(points))
	}

	design := [3]domain.Location{points[0].Design, points[1].Design, points[2].Design}
	if area, scale := triangle(design); scale == 0 || area <= c.tolerance*scale*scale {
		return domain.AffineMatrix{}, fmt.Errorf("%w: design points span area %g at scale %g",
			domain.ErrCalibrationSingular, area, scale)
	}
	// Collinear stage points would give a matrix with no inverse.
	observed := [3]domain.Location{points[0].Stage, points[1].Stage, points[2].Stage}
	if area, scale := triangle(observed); scale == 0 || area <= c.tolerance*scale*scale {
		return domain.AffineMatrix{}, fmt.Errorf("%w: stage points span area %g at scale %g",
			domain.ErrCalibrationSingular, area, scale)
	}

	// One 2-row block per correspondence:
	// u = a*x + b*y + c
	// v = d*x + e*y + f
	A := mat.NewDense(6, 6, nil)
	B := mat.NewVecDense(6, nil)
	for i, p := range points {
		x, y := p.Design.X, p.Design.Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		B.SetVec(i*2, p.Stage.X)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		B.SetVec(i*2+1, p.Stage.Y)
	}

	cond := mat.Cond(A, 1)
	if math.IsInf(cond, 1) || math.IsNaN(cond) || cond > c.maxCondition {
		return domain.AffineMatrix{}, fmt.Errorf("%w: condition number %g", domain.ErrCalibrationSingular, cond)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err != nil {
		var ce mat.Condition
		if !errors.As(err, &ce) {
			return domain.AffineMatrix{}, fmt.Errorf("%w: %v", domain.ErrCalibrationSingular, err)
		}
	}

	m := domain.NewAffineMatrix(
		params.AtVec(0), params.AtVec(1), params.AtVec(2),
		params.AtVec(3), params.AtVec(4), params.AtVec(5),
	)
	if err := m.Validate(); err != nil {
		return domain.AffineMatrix{}, fmt.Errorf("%w: %v", domain.ErrCalibrationSingular, err)
	}

	c.logger.Debug("Calibration solved", "matrix", m.String(), "condition", cond, "residual", MaxResidual(m, points))
	return m, nil
}

// MaxResidual returns the largest distance between a mapped design point and its stage point.
func MaxResidual(m domain.AffineMatrix, points []domain.CalibrationPoint) float64 {
	worst := 0.0
	for _, p := range points {
		worst = max(worst, m.ApplyLocation(p.Design).Distance(p.Stage))
	}
	return worst
}

// triangle returns twice the area spanned by three points and the longest side.
func triangle(pts [3]domain.Location) (area, scale float64) {
	p1, p2, p3 := pts[0], pts[1], pts[2]
	area = math.Abs((p2.X-p1.X)*(p3.Y-p1.Y) - (p3.X-p1.X)*(p2.Y-p1.Y))
	scale = max(p1.Distance(p2), p2.Distance(p3), p1.Distance(p3))
	return area, scale
}

// Pair zips calibration targets with the stage positions observed for them.
func Pair(targets []*domain.Circuit, observed []domain.Location) ([]domain.CalibrationPoint, error) {
	if len(targets) != len(observed) {
		return nil, fmt.Errorf("%w: %d targets, %d observations", domain.ErrCalibrationInput, len(targets), len(observed))
	}
	points := make([]domain.CalibrationPoint, len(targets))
	for i := range targets {
		points[i] = domain.CalibrationPoint{Design: targets[i].Loc, Stage: observed[i]}
	}
	return points, nil
}
