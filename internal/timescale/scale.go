package timescale

import (
	"errors"
	"fmt"
	"time"
)

// Step maps gaps up to MaxGap (inclusive) to a fixed pixel span.
type Step struct {
	MaxGap time.Duration
	Span   float64
}

// Scale is the gap-allocation table: how many pixels of axis a given
// duration between two adjacent entries occupies. Spans grow sub-linearly
// with the gap so dense recent history gets room and sparse old history
// is compressed.
type Scale struct {
	Steps        []Step
	OverflowSpan float64 // span for gaps beyond the last step
}

// DefaultScale returns the stock allocation table.
func DefaultScale() Scale {
	return Scale{
		Steps: []Step{
			{5 * time.Minute, 110},
			{30 * time.Minute, 145},
			{time.Hour, 180},
			{2 * time.Hour, 220},
			{6 * time.Hour, 280},
			{12 * time.Hour, 350},
		},
		OverflowSpan: 420,
	}
}

// Allocate returns the pixel span for a gap between two adjacent points on
// the axis. Non-decreasing in gap; a zero (or negative, already clamped by
// the builder) gap still gets the smallest span so simultaneous entries
// stay readable.
func (s Scale) Allocate(gap time.Duration) float64 {
	if gap < 0 {
		gap = 0
	}
	for _, st := range s.Steps {
		if gap <= st.MaxGap {
			return st.Span
		}
	}
	return s.OverflowSpan
}

// Validate checks that the table is usable: steps strictly increasing in
// gap, spans positive and non-decreasing. A larger gap mapping to a smaller
// span would make the inverse mapping ambiguous.
func (s Scale) Validate() error {
	if len(s.Steps) == 0 {
		return errors.New("timescale: empty allocation table")
	}
	var prevGap time.Duration
	var prevSpan float64
	for i, st := range s.Steps {
		if st.MaxGap <= prevGap && i > 0 {
			return fmt.Errorf("timescale: step %d gap %v not increasing", i, st.MaxGap)
		}
		if st.MaxGap <= 0 {
			return fmt.Errorf("timescale: step %d gap %v not positive", i, st.MaxGap)
		}
		if st.Span <= 0 {
			return fmt.Errorf("timescale: step %d span %v not positive", i, st.Span)
		}
		if st.Span < prevSpan {
			return fmt.Errorf("timescale: step %d span %v smaller than previous %v", i, st.Span, prevSpan)
		}
		prevGap, prevSpan = st.MaxGap, st.Span
	}
	if s.OverflowSpan < prevSpan {
		return fmt.Errorf("timescale: overflow span %v smaller than last step %v", s.OverflowSpan, prevSpan)
	}
	return nil
}

// tailRate is the extrapolation slope in pixels per nanosecond, used past
// the oldest anchor and for future timestamps. It is the maximum
// span-to-duration ratio of the table, which keeps the extrapolated region
// monotonic and continuous at the boundary.
func (s Scale) tailRate() float64 {
	if len(s.Steps) == 0 || s.Steps[len(s.Steps)-1].MaxGap <= 0 {
		return 420.0 / float64(12*time.Hour)
	}
	return s.OverflowSpan / float64(s.Steps[len(s.Steps)-1].MaxGap)
}
