// Package compose models the lifecycle of an in-progress journal entry:
// idle until the user supplies text or an energy value, then composing
// with a live, scroll-adjustable backdate until the draft is committed or
// discarded. Transitions are pure; persistence belongs to the caller.
package compose

import (
	"time"

	"github.com/sadopc/pulse/internal/timescale"
)

// MaxBackdate bounds how far into the past a draft may be dated.
const MaxBackdate = 12 * time.Hour

// Phase is the lifecycle phase of the draft.
type Phase int

const (
	Idle Phase = iota
	Composing
)

// Draft is the not-yet-persisted entry under composition. Energy is 0 when
// unset, otherwise 1 through 10.
type Draft struct {
	Text      string
	Energy    int
	Timestamp time.Time
}

// State is the full composition state. It is a value: Next returns a new
// one and never mutates its input.
type State struct {
	Phase Phase
	Draft Draft
}

// NewState returns the idle state with the draft dated now.
func NewState(now time.Time) State {
	return State{Phase: Idle, Draft: Draft{Timestamp: now}}
}

// Event is one interaction with the draft.
type Event interface{ isEvent() }

// SetText replaces the draft text. Non-empty text begins composing.
type SetText struct{ Text string }

// SetEnergy sets the draft energy (1-10), or clears it with 0. A valid
// value begins composing; out-of-range values are ignored.
type SetEnergy struct{ Energy int }

// Scroll reports the raw axis offset, in pixels below the now baseline,
// chosen by a scroll or drag gesture.
type Scroll struct{ Offset float64 }

// Commit ends composition after the draft has been persisted.
type Commit struct{}

// Discard ends composition without persisting.
type Discard struct{}

func (SetText) isEvent()   {}
func (SetEnergy) isEvent() {}
func (Scroll) isEvent()    {}
func (Commit) isEvent()    {}
func (Discard) isEvent()   {}

// Composer applies events under a bounded lookback window. The zero value
// uses MaxBackdate.
type Composer struct {
	Lookback time.Duration
}

// Next applies one event. The map must have been built from the same now
// that is passed here, so one interaction tick stays internally
// consistent. No event sequence can move the draft timestamp outside
// [now-lookback, now]: the raw offset is clamped before the inverse
// mapping and the derived timestamp is clamped again after it.
func (c Composer) Next(st State, ev Event, now time.Time, m timescale.Map) State {
	lookback := c.Lookback
	if lookback <= 0 {
		lookback = MaxBackdate
	}

	switch ev := ev.(type) {
	case SetText:
		st.Draft.Text = ev.Text
		if st.Phase == Idle {
			st.Draft.Timestamp = now
			if ev.Text != "" {
				st.Phase = Composing
			}
		}
		return st

	case SetEnergy:
		if ev.Energy != 0 && (ev.Energy < 1 || ev.Energy > 10) {
			return st
		}
		st.Draft.Energy = ev.Energy
		if st.Phase == Idle {
			st.Draft.Timestamp = now
			if ev.Energy != 0 {
				st.Phase = Composing
			}
		}
		return st

	case Scroll:
		if st.Phase != Composing {
			return st
		}
		offset := ev.Offset
		if maxOffset := m.TimeToPosition(now.Add(-lookback)); offset > maxOffset {
			offset = maxOffset
		}
		if offset < 0 {
			offset = 0
		}
		t := m.PositionToTime(offset)
		if t.After(now) {
			t = now
		}
		if floor := now.Add(-lookback); t.Before(floor) {
			t = floor
		}
		st.Draft.Timestamp = t
		return st

	case Commit, Discard:
		return NewState(now)
	}
	return st
}

// Next applies one event with the default lookback window.
func Next(st State, ev Event, now time.Time, m timescale.Map) State {
	return Composer{}.Next(st, ev, now, m)
}

// Offset is the draft's current axis position, for the preview marker.
func (st State) Offset(m timescale.Map) float64 {
	return m.TimeToPosition(st.Draft.Timestamp)
}

// Backdated reports whether the draft has been dated into the past.
func (st State) Backdated(now time.Time) bool {
	return st.Phase == Composing && st.Draft.Timestamp.Before(now.Add(-time.Second))
}
