// Package control drives the stage from keyboard events.
//
// Move keys start a continuous move once the Debouncer has seen them held
// long enough, and stop the axis on release. Jog keys step an axis on every
// press. Events arrive on a channel, so any source (a raw terminal, a test, a
// remote client) can drive the same Controller.
package control
