package compose

import (
	"testing"
	"time"

	"github.com/sadopc/pulse/internal/timescale"
)

var testNow = time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)

func testMap() timescale.Map {
	return timescale.DefaultScale().Build(testNow, []time.Time{
		testNow.Add(-10 * time.Minute),
		testNow.Add(-2 * time.Hour),
		testNow.Add(-8 * time.Hour),
	})
}

// ============================================================
// Phase transitions
// ============================================================

func TestTextBeginsComposing(t *testing.T) {
	m := testMap()
	st := NewState(testNow)
	if st.Phase != Idle {
		t.Fatal("new state should be idle")
	}

	st = Next(st, SetText{"coffee"}, testNow, m)
	if st.Phase != Composing {
		t.Fatal("text should begin composing")
	}
	if st.Draft.Text != "coffee" {
		t.Fatalf("draft text = %q", st.Draft.Text)
	}
	if !st.Draft.Timestamp.Equal(testNow) {
		t.Fatalf("draft should start at now, got %v", st.Draft.Timestamp)
	}
}

func TestEnergyBeginsComposing(t *testing.T) {
	m := testMap()
	st := Next(NewState(testNow), SetEnergy{7}, testNow, m)
	if st.Phase != Composing {
		t.Fatal("energy should begin composing")
	}
	if st.Draft.Energy != 7 {
		t.Fatalf("draft energy = %d", st.Draft.Energy)
	}
}

func TestEmptyTextStaysIdle(t *testing.T) {
	m := testMap()
	st := Next(NewState(testNow), SetText{""}, testNow, m)
	if st.Phase != Idle {
		t.Fatal("empty text should not begin composing")
	}
}

func TestEnergyOutOfRangeIgnored(t *testing.T) {
	m := testMap()
	for _, e := range []int{-1, 11, 42} {
		st := Next(NewState(testNow), SetEnergy{e}, testNow, m)
		if st.Phase != Idle || st.Draft.Energy != 0 {
			t.Fatalf("energy %d should be ignored, got %+v", e, st)
		}
	}
	// 0 clears without beginning composition.
	st := Next(NewState(testNow), SetEnergy{0}, testNow, m)
	if st.Phase != Idle {
		t.Fatal("clearing energy should not begin composing")
	}
}

func TestCommitResets(t *testing.T) {
	m := testMap()
	st := Next(NewState(testNow), SetText{"nap"}, testNow, m)
	st = Next(st, Scroll{300}, testNow, m)

	later := testNow.Add(time.Minute)
	st = Next(st, Commit{}, later, m)
	if st.Phase != Idle {
		t.Fatal("commit should return to idle")
	}
	if st.Draft.Text != "" || st.Draft.Energy != 0 {
		t.Fatalf("commit should clear the draft: %+v", st.Draft)
	}
	if !st.Draft.Timestamp.Equal(later) {
		t.Fatalf("commit should reset timestamp to now, got %v", st.Draft.Timestamp)
	}
}

func TestDiscardResets(t *testing.T) {
	m := testMap()
	st := Next(NewState(testNow), SetEnergy{3}, testNow, m)
	st = Next(st, Discard{}, testNow, m)
	if st.Phase != Idle || st.Draft.Energy != 0 {
		t.Fatalf("discard should reset: %+v", st)
	}
	if !st.Draft.Timestamp.Equal(testNow) {
		t.Fatalf("discard should reset timestamp to now, got %v", st.Draft.Timestamp)
	}
}

// ============================================================
// Backdating
// ============================================================

func TestScrollIgnoredWhileIdle(t *testing.T) {
	m := testMap()
	st := Next(NewState(testNow), Scroll{500}, testNow, m)
	if st.Phase != Idle || !st.Draft.Timestamp.Equal(testNow) {
		t.Fatalf("idle scroll should be a no-op: %+v", st)
	}
}

func TestScrollBackdates(t *testing.T) {
	m := testMap()
	st := Next(NewState(testNow), SetText{"walk"}, testNow, m)

	pos := m.TimeToPosition(testNow.Add(-30 * time.Minute))
	st = Next(st, Scroll{pos}, testNow, m)

	want := testNow.Add(-30 * time.Minute)
	if d := st.Draft.Timestamp.Sub(want); d > time.Second || d < -time.Second {
		t.Fatalf("draft timestamp = %v, want about %v", st.Draft.Timestamp, want)
	}
	if !st.Backdated(testNow) {
		t.Fatal("draft should report backdated")
	}
}

func TestScrollClamp(t *testing.T) {
	m := testMap()
	floor := testNow.Add(-MaxBackdate)

	offsets := []float64{-1e6, -1, 0, 250, 1e4, 1e9}
	st := Next(NewState(testNow), SetText{"x"}, testNow, m)
	for _, off := range offsets {
		st = Next(st, Scroll{off}, testNow, m)
		ts := st.Draft.Timestamp
		if ts.After(testNow) {
			t.Fatalf("offset %v produced a future timestamp %v", off, ts)
		}
		if ts.Before(floor) {
			t.Fatalf("offset %v exceeded the lookback bound: %v", off, ts)
		}
	}

	// The extremes pin to the bounds exactly.
	st = Next(st, Scroll{-1e6}, testNow, m)
	if !st.Draft.Timestamp.Equal(testNow) {
		t.Fatalf("negative offset should pin to now, got %v", st.Draft.Timestamp)
	}
	st = Next(st, Scroll{1e9}, testNow, m)
	if d := st.Draft.Timestamp.Sub(floor); d > time.Second || d < -time.Second {
		t.Fatalf("huge offset should pin to now-12h, got %v", st.Draft.Timestamp)
	}
}

func TestScrollClampEmptyMap(t *testing.T) {
	// Backdating must work before any entry exists.
	m := timescale.DefaultScale().Build(testNow, nil)
	st := Next(NewState(testNow), SetText{"first"}, testNow, m)
	st = Next(st, Scroll{200}, testNow, m)
	if !st.Draft.Timestamp.Before(testNow) {
		t.Fatal("scroll on empty map should backdate")
	}
	if st.Draft.Timestamp.Before(testNow.Add(-MaxBackdate)) {
		t.Fatal("empty-map scroll exceeded the lookback bound")
	}
}

func TestCustomLookback(t *testing.T) {
	m := testMap()
	c := Composer{Lookback: time.Hour}
	st := c.Next(NewState(testNow), SetText{"x"}, testNow, m)
	st = c.Next(st, Scroll{1e9}, testNow, m)
	floor := testNow.Add(-time.Hour)
	if d := st.Draft.Timestamp.Sub(floor); d > time.Second || d < -time.Second {
		t.Fatalf("custom lookback bound not honored: %v", st.Draft.Timestamp)
	}
}

func TestOffsetRoundTrip(t *testing.T) {
	m := testMap()
	st := Next(NewState(testNow), SetText{"x"}, testNow, m)
	st = Next(st, Scroll{333}, testNow, m)
	off := st.Offset(m)
	if off < 332 || off > 334 {
		t.Fatalf("Offset = %v, want about 333", off)
	}
}
