package actor

import "time"

// cpuNow samples a monotonic instant used to measure a handler's wall time
// when profiling is enabled (spec.md §4.3 step 6). A true per-thread CPU
// time sample isn't portably available from Go without cgo; wall time
// under a non-blocking handler is the practical stand-in, so the `profile`
// config key (spec.md §6) turns on wall-time measurement.
func cpuNow() time.Time {
	return time.Now()
}
