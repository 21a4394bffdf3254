// Package trigger fires periodic capture submissions. It runs a single
// goroutine over a min-heap of Events sorted by trigger time, sleeping at
// most 60 seconds at a time so wall-clock jumps (NTP steps, DST, system
// sleep) are noticed promptly.
//
// Events with a cron expression re-arm themselves after firing; events
// without one fire once. Nothing is persisted.
package trigger
