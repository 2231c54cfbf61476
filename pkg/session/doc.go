/*
Package session serializes access to the physical axes of a stage.

A Manager hands out per-axis locks so that a jog controller, a batch runner and
a remote client can share one stage without interleaving motion commands on an
axis. Locks are reference counted and garbage collected, and can be backed by a
ports.DistributedLocker when several processes drive the same hardware.
*/
package session
