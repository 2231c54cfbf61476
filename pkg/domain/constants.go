package domain

// Parameter keys with a meaning to the engine. Every other key is opaque.
const (
	// KeyCalibrationCircuit flags a circuit as one of the three calibration targets.
	KeyCalibrationCircuit = "calibration_circuit"

	// KeyName is the conventional human readable circuit identifier.
	KeyName = "name"

	// TrueValue is the literal value used by boolean flags in catalog files.
	TrueValue = "True"
)
