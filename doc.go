/*
Package gator calibrates and drives a photonic chip positioning stage.

A chip layout is described by a catalog of circuits in design coordinates. The
stage moves in its own motor coordinates. gator solves the affine map between
the two from three reference circuits, converts any design point to a stage
target, and finds the best coupling position around a target by scanning the
optical signal.

# Concept

A Session ties the pieces together: the circuit catalog, the calibration
(solved, installed and persisted per stage profile), the stage and its
acquisition unit, and the per-axis locks that keep concurrent callers from
interleaving motion on an axis. Every collaborator is injected, so the same
Session runs against real drivers, the simulated drivers in pkg/adapters/sim,
or test doubles.

# Usage

	sess, err := gator.New(
		gator.WithStage(st),
		gator.WithDAQ(daq),
		gator.WithCalibrationStore(file.New("")),
		gator.WithProfile("bench"),
	)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := sess.LoadCircuits("chip.txt"); err != nil {
		log.Fatal(err)
	}

	// Stage positions observed for the three calibration targets.
	if _, err := sess.Calibrate(ctx, observed); err != nil {
		log.Fatal(err)
	}

	for _, c := range sess.Circuits().FilterBy(map[string]string{"type": "ring"}).Circuits() {
		loc, err := sess.Visit(ctx, c, true)
		...
	}

The cmd/gator CLI wraps the same API and adds keyboard jogging, an HTTP
API and an MCP server.
*/
package gator
