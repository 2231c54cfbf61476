// Package config describes stage profiles and the directory they live in.
//
// A profile names one driver per axis plus the acquisition unit, the chip
// load/unload positions and scan defaults. Drivers are looked up by tag in a
// registry.Registry, so adding hardware means registering a factory rather
// than editing the schema.
package config
