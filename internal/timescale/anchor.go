package timescale

import (
	"sort"
	"time"
)

// Anchor is one point on the derived axis: the synthetic "now" anchor at
// position 0, or one anchor per entry, newest first.
type Anchor struct {
	Time         time.Time
	Position     float64
	GapFromNewer time.Duration // gap to the previous (newer) anchor, 0 for now
	GapSpan      float64       // pixels allocated to that gap
	EntryIndex   int           // index into the Build input, -1 for the now anchor
}

// Map is the anchor sequence for one render pass. It is pure derived
// state: rebuilt whenever the entry list or "now" changes, and must only
// ever be queried against the now it was built from.
type Map struct {
	Anchors []Anchor
	Now     time.Time
	scale   Scale
}

// Build derives the anchor map for the given instant and entry timestamps.
// Input order is irrelevant (a stable descending sort is applied, so tied
// timestamps keep their input order); EntryIndex on each anchor refers back
// to the input slice. Anchor times are pinned to be non-increasing: a
// timestamp ahead of now yields a zero gap and an anchor dated now, so the
// axis never runs backwards and the mapper's bracket search stays sound.
// Deterministic: the same inputs always yield the same map.
func (s Scale) Build(now time.Time, times []time.Time) Map {
	order := make([]int, len(times))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return times[order[a]].After(times[order[b]])
	})

	anchors := make([]Anchor, 0, len(times)+1)
	anchors = append(anchors, Anchor{Time: now, EntryIndex: -1})

	prev := now
	pos := 0.0
	for _, i := range order {
		t := times[i]
		// A timestamp ahead of the previous point (ahead of now, after
		// the descending sort) is pinned to it, so anchor times stay
		// non-increasing and the bracket search stays well defined.
		if t.After(prev) {
			t = prev
		}
		gap := prev.Sub(t)
		span := s.Allocate(gap)
		pos += span
		anchors = append(anchors, Anchor{
			Time:         t,
			Position:     pos,
			GapFromNewer: gap,
			GapSpan:      span,
			EntryIndex:   i,
		})
		prev = t
	}

	return Map{Anchors: anchors, Now: now, scale: s}
}

// Oldest returns the last anchor (the now anchor when the map is empty).
func (m Map) Oldest() Anchor {
	return m.Anchors[len(m.Anchors)-1]
}

// Span is the position of the oldest anchor, i.e. the pixel length of the
// mapped (non-extrapolated) axis.
func (m Map) Span() float64 {
	return m.Oldest().Position
}
