package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyEntry is returned when an entry has neither a description
	// nor an energy value.
	ErrEmptyEntry = errors.New("entry needs a description or an energy value")

	// ErrEnergyRange is returned when energy is outside 1-10.
	ErrEnergyRange = errors.New("energy must be between 1 and 10")
)

// CreateEntry validates and persists one entry. The timestamp is stored in
// UTC; validation failures leave the database untouched.
func (s *Store) CreateEntry(userID int64, ts time.Time, description *string, energy *int) (*Entry, error) {
	if description == nil && energy == nil {
		return nil, ErrEmptyEntry
	}
	if energy != nil && (*energy < 1 || *energy > 10) {
		return nil, ErrEnergyRange
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO entries (user_id, timestamp, description, energy, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, ts.UTC().Format(time.RFC3339), description, energy, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetEntry(id)
}

func (s *Store) GetEntry(id int64) (*Entry, error) {
	e := &Entry{}
	var timestamp, createdAt string
	var description sql.NullString
	var energy sql.NullInt64

	err := s.db.QueryRow(
		`SELECT id, user_id, timestamp, description, energy, created_at
		 FROM entries WHERE id = ?`, id,
	).Scan(&e.ID, &e.UserID, &timestamp, &description, &energy, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("get entry %d: %w", id, err)
	}
	if description.Valid {
		e.Description = &description.String
	}
	if energy.Valid {
		v := int(energy.Int64)
		e.Energy = &v
	}
	e.Timestamp, _ = time.Parse(time.RFC3339, timestamp)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return e, nil
}

// ListEntries returns entries newest first.
func (s *Store) ListEntries(f EntryFilter) ([]Entry, error) {
	query := `SELECT id, user_id, timestamp, description, energy, created_at FROM entries WHERE 1=1`
	var args []any

	if f.UserID != nil {
		query += ` AND user_id = ?`
		args = append(args, *f.UserID)
	}
	if f.From != nil {
		query += ` AND timestamp >= ?`
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		query += ` AND timestamp < ?`
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY timestamp DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var timestamp, createdAt string
		var description sql.NullString
		var energy sql.NullInt64
		if err := rows.Scan(&e.ID, &e.UserID, &timestamp, &description, &energy, &createdAt); err != nil {
			return nil, err
		}
		if description.Valid {
			e.Description = &description.String
		}
		if energy.Valid {
			v := int(energy.Int64)
			e.Energy = &v
		}
		e.Timestamp, _ = time.Parse(time.RFC3339, timestamp)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetDailyEnergy aggregates average energy per day over [from, to) for one
// user, skipping entries without an energy value.
func (s *Store) GetDailyEnergy(userID int64, from, to time.Time) ([]DailyEnergy, error) {
	rows, err := s.db.Query(`
		SELECT date(timestamp) AS day, AVG(energy), COUNT(*)
		FROM entries
		WHERE user_id = ? AND energy IS NOT NULL
		  AND timestamp >= ? AND timestamp < ?
		GROUP BY day
		ORDER BY day`,
		userID, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("daily energy: %w", err)
	}
	defer rows.Close()

	var days []DailyEnergy
	for rows.Next() {
		var d DailyEnergy
		if err := rows.Scan(&d.Date, &d.AvgEnergy, &d.EntryCount); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}
