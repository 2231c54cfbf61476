/*
Package ports defines the driven ports (interfaces) of the gator engine.

These interfaces decouple calibration and scanning from concrete hardware
drivers and storage backends, so the same routines run against real
controllers, the simulator, or test doubles.

# Key Interfaces

  - Motor: one positioning axis (absolute, relative and continuous moves).
  - DataAcquisitionUnit: a scalar signal source such as an oscilloscope.
  - CalibrationStore: persists the affine matrix of a stage profile.
  - DistributedLocker: coordinates exclusive axis access across processes.
*/
package ports
