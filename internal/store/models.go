package store

import "time"

type User struct {
	ID        int64
	SecretKey string
	CreatedAt time.Time
}

// Entry is one journal record. Description and Energy are optional but at
// least one of them is always present; Energy, when set, is 1 through 10.
// Timestamps are UTC instants.
type Entry struct {
	ID          int64
	UserID      int64
	Timestamp   time.Time
	Description *string
	Energy      *int
	CreatedAt   time.Time
}

// EntryFilter is used to filter entries in queries.
type EntryFilter struct {
	UserID *int64
	From   *time.Time
	To     *time.Time
	Limit  int
}

// DailyEnergy is the per-day energy aggregate for the trends chart.
type DailyEnergy struct {
	Date       string
	AvgEnergy  float64
	EntryCount int
}
