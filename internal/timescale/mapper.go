package timescale

import "time"

// TimeToPosition converts a timestamp to an axis position. Inside the map
// it interpolates linearly within the bracketing anchor pair; timestamps
// newer than now map to negative positions and timestamps older than the
// oldest anchor extrapolate at the scale's tail rate. Total: never fails,
// never truncates.
func (m Map) TimeToPosition(t time.Time) float64 {
	a := m.Anchors
	if len(a) == 0 {
		return 0
	}
	newest := a[0]
	if t.After(newest.Time) {
		return -float64(t.Sub(newest.Time)) * m.scale.tailRate()
	}
	for i := 1; i < len(a); i++ {
		older := a[i]
		if !t.Before(older.Time) {
			newer := a[i-1]
			dt := newer.Time.Sub(older.Time)
			if dt <= 0 {
				// Tied anchors: the bracket has no time width.
				return newer.Position
			}
			frac := float64(newer.Time.Sub(t)) / float64(dt)
			return newer.Position + frac*(older.Position-newer.Position)
		}
	}
	oldest := a[len(a)-1]
	return oldest.Position + float64(oldest.Time.Sub(t))*m.scale.tailRate()
}

// PositionToTime is the inverse of TimeToPosition: exact on the interior of
// the map, tail-rate extrapolation past either end. Total: out-of-range
// positions are resolved, never rejected.
func (m Map) PositionToTime(p float64) time.Time {
	a := m.Anchors
	if len(a) == 0 {
		return m.Now
	}
	newest := a[0]
	rate := m.scale.tailRate()
	if p <= newest.Position {
		return newest.Time.Add(time.Duration((newest.Position - p) / rate))
	}
	for i := 1; i < len(a); i++ {
		older := a[i]
		if p <= older.Position {
			newer := a[i-1]
			span := older.Position - newer.Position
			if span <= 0 {
				return newer.Time
			}
			frac := (p - newer.Position) / span
			dt := newer.Time.Sub(older.Time)
			return newer.Time.Add(-time.Duration(frac * float64(dt)))
		}
	}
	oldest := a[len(a)-1]
	return oldest.Time.Add(-time.Duration((p - oldest.Position) / rate))
}
