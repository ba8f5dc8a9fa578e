package ann

import "time"

// newTimer returns a function reporting elapsed seconds since it was
// created, for feeding prometheus.Histogram.Observe.
func newTimer() func() float64 {
	start := time.Now()
	return func() float64 { return time.Since(start).Seconds() }
}
