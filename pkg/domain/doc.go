/*
Package domain contains the core models of the gator alignment engine.

It defines the circuit catalog (Location, Circuit, CircuitMap), the affine
calibration model (AffineMatrix, CalibrationPoint) and the vocabulary used to
address stage axes. This package is kept pure and free of I/O and hardware
concerns; adapters and services build on top of it.

# Key Entities

  - Location: an immutable (x, y) pair in either design or stage space.
  - Circuit: a Location plus free-form string parameters.
  - CircuitMap: an ordered catalog of circuits with filter and merge queries.
  - AffineMatrix: the homogeneous 3x3 transform from design space to stage space.
  - CalibrationPoint: one design/stage correspondence used to solve the matrix.
*/
package domain
