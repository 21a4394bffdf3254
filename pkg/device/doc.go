// Package device provides capture.Operation implementations: a simulated
// camera with configurable latency and fault rate, and a file source that
// replays frames stored in a directory.
package device
