// Package experiment runs a measurement procedure on every circuit of a map.
//
// The Runner positions the stage on each circuit through the calibration,
// optionally refines the position with an auto scan, and hands control to the
// Experiment. Setup runs once before the first circuit and Teardown once after
// the last, even when a circuit fails.
package experiment
