package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/pulse/internal/store"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID          int64   `json:"id"`
	Timestamp   string  `json:"timestamp"`
	Age         string  `json:"age"`
	Description *string `json:"description,omitempty"`
	Energy      *int    `json:"energy,omitempty"`
	Created     string  `json:"created_at"`
}

func ToJSON(entries []store.Entry, path string) error {
	now := time.Now().UTC()
	out := jsonExport{
		ExportedAt: now.Format(time.RFC3339),
		Count:      len(entries),
	}

	for _, e := range entries {
		out.Entries = append(out.Entries, jsonEntry{
			ID:          e.ID,
			Timestamp:   e.Timestamp.UTC().Format(time.RFC3339),
			Age:         ageString(now.Sub(e.Timestamp)),
			Description: e.Description,
			Energy:      e.Energy,
			Created:     e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
