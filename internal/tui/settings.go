package tui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pulse/internal/config"
)

type settingsModel struct {
	cfg     config.Config
	cfgPath string
	width   int
	height  int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	rowPx        *string
	maxBackdate  *string
	overflowSpan *string
	listen       *string
}

func newSettingsModel(cfg config.Config, cfgPath string) settingsModel {
	rp, mb, os, li := "", "", "", ""
	return settingsModel{
		cfg:          cfg,
		cfgPath:      cfgPath,
		rowPx:        &rp,
		maxBackdate:  &mb,
		overflowSpan: &os,
		listen:       &li,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, keys.Enter) {
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.rowPx = strconv.FormatFloat(s.cfg.Timeline.RowPx, 'f', -1, 64)
	*s.maxBackdate = time.Duration(s.cfg.Timeline.MaxBackdate).String()
	*s.overflowSpan = strconv.FormatFloat(s.cfg.Timeline.OverflowSpan, 'f', -1, 64)
	*s.listen = s.cfg.Server.Listen

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Axis pixels per row").Value(s.rowPx),
			huh.NewInput().Title("Max backdate (e.g. 12h)").Value(s.maxBackdate),
			huh.NewInput().Title("Span of gaps past 12h (px)").Value(s.overflowSpan),
		).Title("Timeline"),
		huh.NewGroup(
			huh.NewInput().Title("API listen address").Value(s.listen),
		).Title("Server"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s.save()
	}

	return s, cmd
}

func (s settingsModel) save() (settingsModel, tea.Cmd) {
	cfg := s.cfg

	if v, err := strconv.ParseFloat(*s.rowPx, 64); err == nil {
		cfg.Timeline.RowPx = v
	}
	if v, err := time.ParseDuration(*s.maxBackdate); err == nil {
		cfg.Timeline.MaxBackdate = config.Duration(v)
	}
	if v, err := strconv.ParseFloat(*s.overflowSpan, 64); err == nil {
		cfg.Timeline.OverflowSpan = v
	}
	cfg.Server.Listen = *s.listen

	if err := config.Save(cfg, s.cfgPath); err != nil {
		return s, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Settings error: %v", err), isError: true}
		}
	}

	s.cfg = cfg
	return s, func() tea.Msg { return configSavedMsg{cfg: cfg} }
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	rows := []string{
		title,
		"",
		settingRow("Axis pixels per row", strconv.FormatFloat(s.cfg.Timeline.RowPx, 'f', -1, 64)),
		settingRow("Max backdate", time.Duration(s.cfg.Timeline.MaxBackdate).String()),
		settingRow("Overflow gap span", strconv.FormatFloat(s.cfg.Timeline.OverflowSpan, 'f', -1, 64)+" px"),
		settingRow("API listen address", s.cfg.Server.Listen),
		settingRow("Config file", s.cfgPath),
		"",
		hint,
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func settingRow(label, value string) string {
	l := lipgloss.NewStyle().Width(24).Render(label)
	return fmt.Sprintf("  %s %s", l, highlightStyle.Render(value))
}
