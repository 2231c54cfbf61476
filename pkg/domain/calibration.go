package domain

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CalibrationPoint pairs a design-space location with the stage position observed for it.
type CalibrationPoint struct {
	Design Location `json:"design"`
	Stage  Location `json:"stage"`
}

// AffineMatrix is the homogeneous design-to-stage transform
//
//	[ a  b  c ]
//	[ d  e  f ]
//	[ 0  0  1 ]
//
// It is a value: recalibration replaces it wholesale.
type AffineMatrix [3][3]float64

// singularDet is the determinant magnitude below which a matrix is not invertible.
const singularDet = 1e-12

// NewAffineMatrix assembles a matrix from its six free coefficients.
func NewAffineMatrix(a, b, c, d, e, f float64) AffineMatrix {
	return AffineMatrix{
		{a, b, c},
		{d, e, f},
		{0, 0, 1},
	}
}

// Identity returns the identity transform.
func Identity() AffineMatrix {
	return NewAffineMatrix(1, 0, 0, 0, 1, 0)
}

// Coefficients returns a, b, c, d, e, f.
func (m AffineMatrix) Coefficients() [6]float64 {
	return [6]float64{m[0][0], m[0][1], m[0][2], m[1][0], m[1][1], m[1][2]}
}

// Apply maps the point (x, y) through the matrix.
func (m AffineMatrix) Apply(x, y float64) (float64, float64) {
	return m[0][0]*x + m[0][1]*y + m[0][2],
		m[1][0]*x + m[1][1]*y + m[1][2]
}

// ApplyLocation maps a Location through the matrix.
func (m AffineMatrix) ApplyLocation(l Location) Location {
	x, y := m.Apply(l.X, l.Y)
	return Location{X: x, Y: y}
}

// Determinant returns the determinant of the linear part.
func (m AffineMatrix) Determinant() float64 {
	return m[0][0]*m[1][1] - m[0][1]*m[1][0]
}

// Inverse returns the stage-to-design transform.
func (m AffineMatrix) Inverse() (AffineMatrix, error) {
	det := m.Determinant()
	if math.Abs(det) < singularDet || math.IsNaN(det) {
		return AffineMatrix{}, fmt.Errorf("invert matrix (det=%g): %w", det, ErrCalibrationSingular)
	}
	a, b, c := m[0][0], m[0][1], m[0][2]
	d, e, f := m[1][0], m[1][1], m[1][2]
	ia, ib := e/det, -b/det
	id, ie := -d/det, a/det
	return NewAffineMatrix(ia, ib, -(ia*c + ib*f), id, ie, -(id*c + ie*f)), nil
}

// Validate checks the bottom row is [0 0 1] and every coefficient is finite.
func (m AffineMatrix) Validate() error {
	if m[2][0] != 0 || m[2][1] != 0 || m[2][2] != 1 {
		return fmt.Errorf("not an affine matrix: bottom row is %v", m[2])
	}
	for _, row := range m {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("not an affine matrix: non-finite coefficient %v", v)
			}
		}
	}
	return nil
}

// MarshalText writes the matrix as three lines of three space separated numbers.
func (m AffineMatrix) MarshalText() ([]byte, error) {
	var buf bytes.Buffer
	for _, row := range m {
		fmt.Fprintf(&buf, "%.18e %.18e %.18e\n", row[0], row[1], row[2])
	}
	return buf.Bytes(), nil
}

// UnmarshalText reads the plain rows layout written by MarshalText.
// Blank lines and lines starting with '#' are ignored.
func (m *AffineMatrix) UnmarshalText(text []byte) error {
	var out AffineMatrix
	row := 0
	sc := bufio.NewScanner(bytes.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if row == 3 {
			return fmt.Errorf("matrix has more than 3 rows")
		}
		fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
		if len(fields) != 3 {
			return fmt.Errorf("matrix row %d: expected 3 values, got %d", row+1, len(fields))
		}
		for col, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("matrix row %d: %w", row+1, err)
			}
			out[row][col] = v
		}
		row++
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if row != 3 {
		return fmt.Errorf("matrix has %d rows, expected 3", row)
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*m = out
	return nil
}

// String renders the matrix compactly for logs.
func (m AffineMatrix) String() string {
	return fmt.Sprintf("[[%g %g %g] [%g %g %g] [%g %g %g]]",
		m[0][0], m[0][1], m[0][2], m[1][0], m[1][1], m[1][2], m[2][0], m[2][1], m[2][2])
}
