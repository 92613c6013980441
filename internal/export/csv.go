package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/pulse/internal/store"
)

func ToCSV(entries []store.Entry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Timestamp", "Age", "Description", "Energy", "Created"}); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, e := range entries {
		desc := ""
		if e.Description != nil {
			desc = *e.Description
		}
		energy := ""
		if e.Energy != nil {
			energy = fmt.Sprintf("%d", *e.Energy)
		}

		row := []string{
			fmt.Sprintf("%d", e.ID),
			e.Timestamp.UTC().Format(time.RFC3339),
			ageString(now.Sub(e.Timestamp)),
			desc,
			energy,
			e.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

// ageString renders how long ago an entry happened, coarsening with scale.
func ageString(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh %dm", h, m)
	default:
		days := int(d.Hours() / 24)
		h := int(d.Hours()) % 24
		if h == 0 {
			return fmt.Sprintf("%dd", days)
		}
		return fmt.Sprintf("%dd %dh", days, h)
	}
}
