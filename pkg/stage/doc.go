/*
Package stage aggregates the motorized axes of a probe station into one Stage.

Axes are addressed by name (x, y, z, theta, phi, psi); any subset may be
configured. Design-space moves go through a calibration.Transformer and are
refused while the stage is uncalibrated, so design numbers are never sent to
the motors as stage numbers.
*/
package stage
