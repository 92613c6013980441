package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/pulse/internal/config"
	"github.com/sadopc/pulse/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewJournal viewState = iota
	viewTrends
	viewSettings
)

var viewNames = []string{"Journal", "Trends", "Settings"}

// --- Messages ---

type journalDataMsg struct {
	user    *store.User
	entries []store.Entry
	err     error
}

type entryCreatedMsg struct {
	entry *store.Entry
}

type entryCreateFailedMsg struct {
	err error
}

type trendsDataMsg struct {
	days []store.DailyEnergy
	err  error
}

type configSavedMsg struct {
	cfg config.Config
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// --- Helpers ---

// formatAgo renders a past duration the way the journal labels entries.
func formatAgo(d time.Duration) string {
	switch {
	case d < 5*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m == 0 {
			return fmt.Sprintf("%dh ago", h)
		}
		return fmt.Sprintf("%dh %dm ago", h, m)
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// formatGap renders the duration of a gap between two entries.
func formatGap(d time.Duration) string {
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
