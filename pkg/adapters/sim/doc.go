// Package sim provides in-memory stage axes and an acquisition unit with a
// synthetic signal. They back the "sim" drivers and every hardware-free test.
package sim
