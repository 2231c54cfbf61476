/*
Package scan locates the stage position that maximizes a measured signal.

BoxScan rasters a window exhaustively, LineScan hill-climbs one axis with
backlash-safe approaches, and AutoScan composes a coarse box with two fine
line scans. Every step is a blocking move, settle, measure sequence; the
Optimizer performs no locking of its own, so callers must hold exclusive
access to the axes for the duration of a scan (see package session).

Hardware failures are wrapped in *domain.HardwareError and returned
immediately. Nothing is retried, since a failed move invalidates the
positional assumptions of the rest of the scan. Cancellation is cooperative:
the context is checked between grid points and between line steps.
*/
package scan
