package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pulse/internal/store"
)

const trendsWindowDays = 7

type trendsModel struct {
	store  *store.Store
	width  int
	height int

	days   []store.DailyEnergy
	offset int // 7-day blocks back from today (0 = current)

	chart barchart.Model
}

func newTrendsModel(s *store.Store) trendsModel {
	return trendsModel{
		store: s,
		chart: barchart.New(60, 12),
	}
}

func (t *trendsModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

func (t trendsModel) dateRange() (time.Time, time.Time) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := today.AddDate(0, 0, 1-trendsWindowDays*t.offset)
	return end.AddDate(0, 0, -trendsWindowDays), end
}

func (t trendsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		user, err := t.store.EnsureLocalUser()
		if err != nil {
			return trendsDataMsg{err: err}
		}
		from, to := t.dateRange()
		days, err := t.store.GetDailyEnergy(user.ID, from, to)
		return trendsDataMsg{days: days, err: err}
	}
}

func (t trendsModel) update(msg tea.Msg) (trendsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case trendsDataMsg:
		if msg.err != nil {
			return t, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Trends error: %v", msg.err), isError: true}
			}
		}
		t.days = msg.days
		t.buildChart()
		return t, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			t.offset++
			return t, t.refresh()
		case key.Matches(msg, keys.Right):
			if t.offset > 0 {
				t.offset--
			}
			return t, t.refresh()
		}
	}
	return t, nil
}

func (t *trendsModel) buildChart() {
	chartWidth := t.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if t.height > 30 {
		chartHeight = 16
	}

	t.chart = barchart.New(chartWidth, chartHeight)

	from, to := t.dateRange()

	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")
		label := d.Format("Mon 02")

		var values []barchart.BarValue
		for _, day := range t.days {
			if day.Date == dateStr {
				level := int(day.AvgEnergy + 0.5)
				values = append(values, barchart.BarValue{
					Name:  dateStr,
					Value: day.AvgEnergy,
					Style: energyStyle(level),
				})
			}
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: dateStr, Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: values,
		})
	}

	t.chart.PushAll(bars)
	t.chart.Draw()
}

func (t trendsModel) view() string {
	w := t.width - 4

	from, to := t.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s — %s", from.Format("Jan 02"), to.Add(-24*time.Hour).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Energy"), "  ", dateLabel,
	)

	chartView := t.chart.View()
	tableView := t.renderDayTable(w)
	nav := mutedStyle.Render("  ←/→: navigate weeks")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", tableView, "", nav,
		),
	)
}

func (t trendsModel) renderDayTable(w int) string {
	if len(t.days) == 0 {
		return mutedStyle.Render("  No energy entries for this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %10s %8s", "Date", "Avg", "Entries")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 34))))

	for _, d := range t.days {
		level := int(d.AvgEnergy + 0.5)
		avg := energyStyle(level).Render(fmt.Sprintf("%10.1f", d.AvgEnergy))
		rows = append(rows, fmt.Sprintf("  %-12s %s %8d", d.Date, avg, d.EntryCount))
	}

	return strings.Join(rows, "\n")
}
