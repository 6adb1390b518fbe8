// Package sizestat accumulates simple min/max/avg statistics for
// non-latency byte sizes (response size, via aggregate.ResponseSizeStats;
// TestResult itself carries no size statistics). It is adapted from the teacher's own stats.Counter rather than
// pulled from a library, since HdrHistogram is reserved for the latency
// axis and the size axis here only ever needs count/min/max/avg, not
// percentiles (see DESIGN.md).
package sizestat

import "math"

// Counter records a running count/min/max/sum/sum-of-squares, the same
// shape as fortio's stats.Counter, renamed and trimmed to this domain.
type Counter struct {
	Count        int64
	Min          float64
	Max          float64
	Sum          float64
	sumOfSquares float64
}

// Record adds one sample.
func (c *Counter) Record(v float64) {
	isFirst := c.Count == 0
	c.Count++
	if isFirst {
		c.Min, c.Max = v, v
	} else if v < c.Min {
		c.Min = v
	} else if v > c.Max {
		c.Max = v
	}
	c.Sum += v
	c.sumOfSquares += v * v
}

// Avg returns the mean, or 0 if no samples were recorded.
func (c *Counter) Avg() float64 {
	if c.Count == 0 {
		return 0
	}
	return c.Sum / float64(c.Count)
}

// StdDev returns the population standard deviation, or 0 if fewer than
// one sample was recorded.
func (c *Counter) StdDev() float64 {
	if c.Count == 0 {
		return 0
	}
	fC := float64(c.Count)
	sigma := (c.sumOfSquares - c.Sum*c.Sum/fC) / fC
	if sigma < 0 {
		sigma = 0 // guards against floating-point cancellation near zero
	}
	return math.Sqrt(sigma)
}
