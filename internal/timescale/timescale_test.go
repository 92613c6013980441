package timescale

import (
	"math"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// ============================================================
// Gap allocation
// ============================================================

func TestAllocateTable(t *testing.T) {
	s := DefaultScale()
	cases := []struct {
		gap  time.Duration
		span float64
	}{
		{0, 110},
		{-time.Minute, 110},
		{3 * time.Minute, 110},
		{5 * time.Minute, 110},
		{5*time.Minute + time.Second, 145},
		{30 * time.Minute, 145},
		{35 * time.Minute, 180},
		{time.Hour, 180},
		{90 * time.Minute, 220},
		{2 * time.Hour, 220},
		{140 * time.Minute, 280},
		{6 * time.Hour, 280},
		{7 * time.Hour, 350},
		{12 * time.Hour, 350},
		{13 * time.Hour, 420},
		{30 * 24 * time.Hour, 420},
	}
	for _, c := range cases {
		if got := s.Allocate(c.gap); got != c.span {
			t.Errorf("Allocate(%v) = %v, want %v", c.gap, got, c.span)
		}
	}
}

func TestAllocateMonotonic(t *testing.T) {
	s := DefaultScale()
	prev := 0.0
	for gap := time.Duration(0); gap <= 26*time.Hour; gap += time.Minute {
		span := s.Allocate(gap)
		if span < prev {
			t.Fatalf("Allocate(%v) = %v smaller than previous %v", gap, span, prev)
		}
		prev = span
	}
}

func TestScaleValidate(t *testing.T) {
	if err := DefaultScale().Validate(); err != nil {
		t.Fatalf("default scale invalid: %v", err)
	}

	empty := Scale{OverflowSpan: 420}
	if err := empty.Validate(); err == nil {
		t.Fatal("empty table should be rejected")
	}

	shrinking := Scale{
		Steps: []Step{
			{5 * time.Minute, 110},
			{time.Hour, 90}, // span decreases
		},
		OverflowSpan: 420,
	}
	if err := shrinking.Validate(); err == nil {
		t.Fatal("shrinking span should be rejected")
	}

	unordered := Scale{
		Steps: []Step{
			{time.Hour, 110},
			{5 * time.Minute, 145},
		},
		OverflowSpan: 420,
	}
	if err := unordered.Validate(); err == nil {
		t.Fatal("unordered gaps should be rejected")
	}

	lowOverflow := Scale{
		Steps:        []Step{{time.Hour, 110}},
		OverflowSpan: 50,
	}
	if err := lowOverflow.Validate(); err == nil {
		t.Fatal("overflow below last span should be rejected")
	}
}

// ============================================================
// Anchor builder
// ============================================================

func TestBuildExample(t *testing.T) {
	// Entries at now-5m, now-40m, now-3h: gaps 5m, 35m, 2h20m,
	// so spans 110, 180, 280 and cumulative positions 110, 290, 570.
	s := DefaultScale()
	times := []time.Time{
		testNow.Add(-40 * time.Minute),
		testNow.Add(-3 * time.Hour),
		testNow.Add(-5 * time.Minute),
	}
	m := s.Build(testNow, times)

	if len(m.Anchors) != 4 {
		t.Fatalf("expected 4 anchors, got %d", len(m.Anchors))
	}
	if m.Anchors[0].EntryIndex != -1 || m.Anchors[0].Position != 0 || !m.Anchors[0].Time.Equal(testNow) {
		t.Fatalf("bad now anchor: %+v", m.Anchors[0])
	}

	wantSpans := []float64{110, 180, 280}
	wantPos := []float64{110, 290, 570}
	wantIdx := []int{2, 0, 1} // input indices, newest first
	for i := 1; i < len(m.Anchors); i++ {
		a := m.Anchors[i]
		if a.GapSpan != wantSpans[i-1] {
			t.Errorf("anchor %d gap span = %v, want %v", i, a.GapSpan, wantSpans[i-1])
		}
		if a.Position != wantPos[i-1] {
			t.Errorf("anchor %d position = %v, want %v", i, a.Position, wantPos[i-1])
		}
		if a.EntryIndex != wantIdx[i-1] {
			t.Errorf("anchor %d entry index = %d, want %d", i, a.EntryIndex, wantIdx[i-1])
		}
	}

	if got := m.TimeToPosition(testNow.Add(-40 * time.Minute)); got != 290 {
		t.Errorf("TimeToPosition(now-40m) = %v, want 290", got)
	}
	if got := m.PositionToTime(0); !got.Equal(testNow) {
		t.Errorf("PositionToTime(0) = %v, want now", got)
	}
}

func TestBuildMonotonic(t *testing.T) {
	s := DefaultScale()
	lists := [][]time.Time{
		nil,
		{testNow},
		{testNow.Add(-time.Second)},
		{testNow.Add(-time.Minute), testNow.Add(-time.Minute)},
		{testNow.Add(-26 * time.Hour), testNow.Add(-time.Minute), testNow.Add(-13 * time.Hour)},
		{testNow.Add(time.Hour), testNow.Add(-time.Hour)}, // future entry
		{
			testNow.Add(-2 * time.Minute), testNow.Add(-7 * time.Minute),
			testNow.Add(-7 * time.Minute), testNow.Add(-50 * time.Minute),
			testNow.Add(-90 * time.Minute), testNow.Add(-5 * time.Hour),
			testNow.Add(-11 * time.Hour), testNow.Add(-3 * 24 * time.Hour),
		},
	}
	for _, times := range lists {
		m := s.Build(testNow, times)
		for i := 1; i < len(m.Anchors); i++ {
			prev, cur := m.Anchors[i-1], m.Anchors[i]
			if cur.Position < prev.Position {
				t.Fatalf("position decreased at anchor %d: %v -> %v", i, prev.Position, cur.Position)
			}
			if cur.GapSpan != cur.Position-prev.Position {
				t.Fatalf("gap span %v does not match position delta %v", cur.GapSpan, cur.Position-prev.Position)
			}
		}
	}
}

func TestBuildEmpty(t *testing.T) {
	m := DefaultScale().Build(testNow, nil)
	if len(m.Anchors) != 1 {
		t.Fatalf("expected single now anchor, got %d", len(m.Anchors))
	}
	if m.Anchors[0].Position != 0 || !m.Anchors[0].Time.Equal(testNow) {
		t.Fatalf("bad now anchor: %+v", m.Anchors[0])
	}
	if got := m.TimeToPosition(testNow); got != 0 {
		t.Errorf("TimeToPosition(now) = %v, want 0", got)
	}
	if got := m.PositionToTime(0); !got.Equal(testNow) {
		t.Errorf("PositionToTime(0) = %v, want now", got)
	}
}

func TestBuildIdempotent(t *testing.T) {
	s := DefaultScale()
	times := []time.Time{
		testNow.Add(-5 * time.Minute),
		testNow.Add(-40 * time.Minute),
		testNow.Add(-40 * time.Minute),
		testNow.Add(-3 * time.Hour),
	}
	m1 := s.Build(testNow, times)
	m2 := s.Build(testNow, times)
	if len(m1.Anchors) != len(m2.Anchors) {
		t.Fatalf("anchor counts differ: %d vs %d", len(m1.Anchors), len(m2.Anchors))
	}
	for i := range m1.Anchors {
		if m1.Anchors[i] != m2.Anchors[i] {
			t.Fatalf("anchor %d differs: %+v vs %+v", i, m1.Anchors[i], m2.Anchors[i])
		}
	}
}

func TestBuildTiesStable(t *testing.T) {
	tied := testNow.Add(-10 * time.Minute)
	m := DefaultScale().Build(testNow, []time.Time{tied, tied, tied})
	for i := 1; i < len(m.Anchors); i++ {
		if m.Anchors[i].EntryIndex != i-1 {
			t.Fatalf("tied entries reordered: anchor %d has index %d", i, m.Anchors[i].EntryIndex)
		}
	}
	// Each tie still occupies the minimal span.
	if m.Anchors[2].GapSpan != 110 || m.Anchors[3].GapSpan != 110 {
		t.Fatalf("tied gap spans: %v, %v", m.Anchors[2].GapSpan, m.Anchors[3].GapSpan)
	}
}

func TestBuildFutureEntryClamped(t *testing.T) {
	m := DefaultScale().Build(testNow, []time.Time{testNow.Add(time.Minute)})
	if m.Anchors[1].GapFromNewer != 0 {
		t.Fatalf("future gap not clamped: %v", m.Anchors[1].GapFromNewer)
	}
	if !m.Anchors[1].Time.Equal(testNow) {
		t.Fatalf("future anchor time not pinned to now: %v", m.Anchors[1].Time)
	}
	if m.Anchors[1].Position < m.Anchors[0].Position {
		t.Fatal("axis moved backwards for future entry")
	}
}

func TestBuildTimesNonIncreasing(t *testing.T) {
	m := DefaultScale().Build(testNow, []time.Time{
		testNow.Add(time.Minute),
		testNow.Add(-time.Hour),
		testNow.Add(2 * time.Hour),
		testNow.Add(-5 * time.Minute),
	})
	for i := 1; i < len(m.Anchors); i++ {
		if m.Anchors[i].Time.After(m.Anchors[i-1].Time) {
			t.Fatalf("anchor %d time %v after anchor %d time %v",
				i, m.Anchors[i].Time, i-1, m.Anchors[i-1].Time)
		}
	}
}

// ============================================================
// Forward / inverse mapping
// ============================================================

func TestMapperWithFutureEntry(t *testing.T) {
	m := DefaultScale().Build(testNow, []time.Time{
		testNow.Add(time.Minute),
		testNow.Add(-time.Hour),
	})

	// Now still sits at the origin even with a future entry on the map.
	if got := m.TimeToPosition(testNow); got != 0 {
		t.Fatalf("TimeToPosition(now) = %v, want 0", got)
	}

	// No non-negative position may resolve to a future instant.
	for p := 0.0; p <= m.Span()+100; p += 13 {
		if back := m.PositionToTime(p); back.After(testNow) {
			t.Fatalf("PositionToTime(%v) = %v, after now", p, back)
		}
	}

	// Forward mapping stays monotonic across the now boundary.
	prev := math.Inf(-1)
	for off := 2 * time.Minute; off >= -90*time.Minute; off -= time.Minute {
		pos := m.TimeToPosition(testNow.Add(off))
		if pos < prev {
			t.Fatalf("position decreased at now%+v: %v < %v", off, pos, prev)
		}
		prev = pos
	}
}

func TestRoundTripInterior(t *testing.T) {
	s := DefaultScale()
	times := []time.Time{
		testNow.Add(-3 * time.Minute),
		testNow.Add(-25 * time.Minute),
		testNow.Add(-2 * time.Hour),
		testNow.Add(-9 * time.Hour),
	}
	m := s.Build(testNow, times)

	span := m.Span()
	for p := 0.0; p <= span; p += 7.3 {
		back := m.TimeToPosition(m.PositionToTime(p))
		if math.Abs(back-p) > 1 {
			t.Fatalf("position round trip off at %v: got %v", p, back)
		}
	}

	for off := time.Duration(0); off <= 9*time.Hour; off += 97 * time.Second {
		tt := testNow.Add(-off)
		back := m.PositionToTime(m.TimeToPosition(tt))
		if absDuration(back.Sub(tt)) > time.Second {
			t.Fatalf("time round trip off at %v: got %v", tt, back)
		}
	}
}

func TestRoundTripEmptyMap(t *testing.T) {
	m := DefaultScale().Build(testNow, nil)
	for off := time.Duration(0); off <= 12*time.Hour; off += 41 * time.Minute {
		tt := testNow.Add(-off)
		back := m.PositionToTime(m.TimeToPosition(tt))
		if absDuration(back.Sub(tt)) > time.Second {
			t.Fatalf("round trip off at %v: got %v", tt, back)
		}
	}
}

func TestMappingMonotonic(t *testing.T) {
	m := DefaultScale().Build(testNow, []time.Time{
		testNow.Add(-10 * time.Minute),
		testNow.Add(-4 * time.Hour),
	})
	prev := math.Inf(-1)
	for off := -time.Hour; off <= 10*time.Hour; off += time.Minute {
		pos := m.TimeToPosition(testNow.Add(-off))
		if pos < prev {
			t.Fatalf("position decreased going back in time at offset %v: %v -> %v", off, prev, pos)
		}
		prev = pos
	}
}

func TestExtrapolationContinuity(t *testing.T) {
	m := DefaultScale().Build(testNow, []time.Time{
		testNow.Add(-20 * time.Minute),
		testNow.Add(-5 * time.Hour),
	})
	oldest := m.Oldest()

	// Just inside vs just outside the oldest anchor.
	eps := time.Second
	inside := m.TimeToPosition(oldest.Time.Add(eps))
	at := m.TimeToPosition(oldest.Time)
	outside := m.TimeToPosition(oldest.Time.Add(-eps))
	if at != oldest.Position {
		t.Fatalf("position at oldest anchor = %v, want %v", at, oldest.Position)
	}
	if inside > at || outside < at {
		t.Fatalf("discontinuity at oldest anchor: %v, %v, %v", inside, at, outside)
	}
	if outside-at > 1 {
		t.Fatalf("jump past oldest anchor: %v -> %v", at, outside)
	}

	// Same at the now boundary.
	if m.TimeToPosition(testNow) != 0 {
		t.Fatal("now must map to 0")
	}
	future := m.TimeToPosition(testNow.Add(eps))
	if future >= 0 {
		t.Fatalf("future timestamp should map negative, got %v", future)
	}
}

func TestInverseBeyondRange(t *testing.T) {
	m := DefaultScale().Build(testNow, []time.Time{testNow.Add(-time.Hour)})
	span := m.Span()

	past := m.PositionToTime(span + 1000)
	if !past.Before(m.Oldest().Time) {
		t.Fatalf("position past the end should map before the oldest entry, got %v", past)
	}
	back := m.TimeToPosition(past)
	if math.Abs(back-(span+1000)) > 1 {
		t.Fatalf("extrapolated round trip off: %v", back)
	}

	future := m.PositionToTime(-500)
	if !future.After(testNow) {
		t.Fatalf("negative position should map after now, got %v", future)
	}
}
