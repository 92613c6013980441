package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pulse/internal/compose"
	"github.com/sadopc/pulse/internal/config"
	"github.com/sadopc/pulse/internal/store"
	"github.com/sadopc/pulse/internal/timescale"
)

// journalModel renders the entry timeline and owns the draft under
// composition. One "now" is sampled per tick or interaction and the anchor
// map is rebuilt from it, so a render pass is never split across two nows.
type journalModel struct {
	store    *store.Store
	user     *store.User
	scale    timescale.Scale
	rowPx    float64
	composer compose.Composer

	width  int
	height int

	entries []store.Entry
	now     time.Time
	axis    timescale.Map

	comp  compose.State
	input textinput.Model

	topRow int // first visible axis row
}

func newJournalModel(s *store.Store, cfg config.Config) journalModel {
	in := textinput.New()
	in.Placeholder = "what happened?"
	in.CharLimit = 280
	in.Prompt = "> "

	now := time.Now().UTC()
	scale := cfg.Scale()
	return journalModel{
		store:    s,
		scale:    scale,
		rowPx:    cfg.Timeline.RowPx,
		composer: compose.Composer{Lookback: cfg.MaxBackdate()},
		now:      now,
		axis:     scale.Build(now, nil),
		comp:     compose.NewState(now),
		input:    in,
	}
}

func (j journalModel) Init() tea.Cmd {
	return j.loadData()
}

func (j *journalModel) setSize(w, h int) {
	j.width = w
	j.height = h
	j.input.Width = max(20, w-20)
}

func (j *journalModel) applyConfig(cfg config.Config) {
	j.scale = cfg.Scale()
	j.rowPx = cfg.Timeline.RowPx
	j.composer = compose.Composer{Lookback: cfg.MaxBackdate()}
	j.resample()
}

func (j journalModel) composing() bool {
	return j.comp.Phase == compose.Composing
}

// capturingInput reports whether keystrokes belong to the compose bar.
func (j journalModel) capturingInput() bool {
	return j.input.Focused()
}

// composeSummary is shown in the footer while a draft is open.
func (j journalModel) composeSummary() string {
	if !j.composing() {
		return ""
	}
	return "◆ " + formatAgo(j.now.Sub(j.comp.Draft.Timestamp))
}

func (j journalModel) loadData() tea.Cmd {
	return func() tea.Msg {
		user, err := j.store.EnsureLocalUser()
		if err != nil {
			return journalDataMsg{err: err}
		}
		entries, err := j.store.ListEntries(store.EntryFilter{UserID: &user.ID})
		if err != nil {
			return journalDataMsg{user: user, err: err}
		}
		return journalDataMsg{user: user, entries: entries}
	}
}

// resample takes a fresh "now" and rebuilds the anchor map from the
// current entry list.
func (j *journalModel) resample() {
	j.now = time.Now().UTC()
	times := make([]time.Time, len(j.entries))
	for i, e := range j.entries {
		times[i] = e.Timestamp
	}
	j.axis = j.scale.Build(j.now, times)
}

func (j journalModel) update(msg tea.Msg) (journalModel, tea.Cmd) {
	switch msg := msg.(type) {
	case journalDataMsg:
		if msg.user != nil {
			j.user = msg.user
		}
		if msg.err != nil {
			// Keep rendering the last known list; a failed fetch is a
			// status line, not a crash.
			return j, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Load error: %v", msg.err), isError: true}
			}
		}
		j.entries = msg.entries
		j.resample()
		return j, nil

	case tickMsg:
		j.resample()
		return j, nil

	case entryCreatedMsg:
		// Merge the new entry locally before rebuilding; the next full
		// load will agree with it.
		j.entries = append([]store.Entry{*msg.entry}, j.entries...)
		j.comp = compose.NewState(j.now)
		j.input.Reset()
		j.input.Blur()
		j.topRow = 0
		j.resample()
		return j, func() tea.Msg { return statusMsg{text: "Entry saved"} }

	case entryCreateFailedMsg:
		// Draft stays intact so the user can retry.
		return j, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Save error: %v", msg.err), isError: true}
		}

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			return j.scrollRows(-1), nil
		case tea.MouseButtonWheelDown:
			return j.scrollRows(1), nil
		}
		return j, nil

	case tea.KeyMsg:
		return j.handleKey(msg)
	}
	return j, nil
}

func (j journalModel) handleKey(msg tea.KeyMsg) (journalModel, tea.Cmd) {
	j.resample()

	if j.input.Focused() {
		switch {
		case key.Matches(msg, keys.Back):
			j.comp = j.composer.Next(j.comp, compose.Discard{}, j.now, j.axis)
			j.input.Reset()
			j.input.Blur()
			return j, nil

		case key.Matches(msg, keys.Commit):
			return j.submit()

		case key.Matches(msg, keys.Energy):
			e := j.comp.Draft.Energy + 1
			if e > 10 {
				e = 0
			}
			j.comp = j.composer.Next(j.comp, compose.SetEnergy{Energy: e}, j.now, j.axis)
			return j, nil

		// Only raw arrow/page keys scroll here; j/k must stay typeable.
		case msg.Type == tea.KeyUp:
			return j.scrollRows(-1), nil
		case msg.Type == tea.KeyDown:
			return j.scrollRows(1), nil
		case msg.Type == tea.KeyPgUp:
			return j.scrollRows(-j.pageRows()), nil
		case msg.Type == tea.KeyPgDown:
			return j.scrollRows(j.pageRows()), nil
		}

		var cmd tea.Cmd
		j.input, cmd = j.input.Update(msg)
		j.comp = j.composer.Next(j.comp, compose.SetText{Text: j.input.Value()}, j.now, j.axis)
		return j, cmd
	}

	switch {
	case key.Matches(msg, keys.Compose):
		j.input.Focus()
		return j, textinput.Blink

	case key.Matches(msg, keys.Up):
		return j.scrollRows(-1), nil
	case key.Matches(msg, keys.Down):
		return j.scrollRows(1), nil
	case key.Matches(msg, keys.PageUp):
		return j.scrollRows(-j.pageRows()), nil
	case key.Matches(msg, keys.PageDown):
		return j.scrollRows(j.pageRows()), nil
	case key.Matches(msg, keys.Top):
		j.topRow = 0
		return j, nil
	}
	return j, nil
}

func (j journalModel) pageRows() int {
	return max(1, j.timelineRows()-2)
}

// scrollRows moves the viewport while browsing, or the draft's backdate
// while composing. Positive is older (down the axis).
func (j journalModel) scrollRows(n int) journalModel {
	if j.composing() {
		offset := j.comp.Offset(j.axis) + float64(n)*j.rowPx
		j.comp = j.composer.Next(j.comp, compose.Scroll{Offset: offset}, j.now, j.axis)
		return j
	}
	j.topRow += n
	maxTop := max(0, j.oldestRow()-j.timelineRows()+1)
	if j.topRow > maxTop {
		j.topRow = maxTop
	}
	if j.topRow < 0 {
		j.topRow = 0
	}
	return j
}

func (j journalModel) submit() (journalModel, tea.Cmd) {
	if j.user == nil {
		return j, func() tea.Msg {
			return statusMsg{text: "Still loading — try again", isError: true}
		}
	}
	text := strings.TrimSpace(j.input.Value())
	energy := j.comp.Draft.Energy
	if text == "" && energy == 0 {
		return j, func() tea.Msg {
			return statusMsg{text: "Nothing to save — add text or energy", isError: true}
		}
	}

	var desc *string
	if text != "" {
		desc = &text
	}
	var en *int
	if energy != 0 {
		en = &energy
	}
	ts := j.comp.Draft.Timestamp
	userID := j.user.ID

	st := j.store
	return j, func() tea.Msg {
		entry, err := st.CreateEntry(userID, ts, desc, en)
		if err != nil {
			return entryCreateFailedMsg{err: err}
		}
		return entryCreatedMsg{entry: entry}
	}
}

// --- Rendering ---

func (j journalModel) timelineRows() int {
	return max(1, j.height-4) // compose bar above the timeline
}

func (j journalModel) rowOf(pos float64) int {
	return int(math.Round(pos / j.rowPx))
}

func (j journalModel) oldestRow() int {
	return j.rowOf(j.axis.Span())
}

func (j journalModel) view() string {
	if j.width < 20 {
		return "Terminal too small"
	}
	w := j.width - 4
	bar := j.renderComposeBar(w)
	timeline := j.renderTimeline(w, j.timelineRows())
	return lipgloss.JoinVertical(lipgloss.Left, bar, timeline)
}

func (j journalModel) renderComposeBar(w int) string {
	if !j.composing() && !j.input.Focused() {
		hint := mutedStyle.Render("n: new entry · scroll to browse")
		return panelStyle.Width(w).Padding(0, 1).Render(hint)
	}

	parts := []string{j.input.View()}

	energy := j.comp.Draft.Energy
	if energy > 0 {
		parts = append(parts, energyStyle(energy).Render(fmt.Sprintf("energy %s %d", strings.Repeat("▮", energy), energy)))
	} else {
		parts = append(parts, mutedStyle.Render("energy — (ctrl+e)"))
	}

	when := "now"
	if j.comp.Backdated(j.now) {
		when = formatAgo(j.now.Sub(j.comp.Draft.Timestamp))
	}
	parts = append(parts, draftMarkStyle.Render("◆ "+when)+mutedStyle.Render("  ↑/↓ backdate · enter save · esc discard"))

	return activePanelStyle.Width(w).Padding(0, 1).Render(strings.Join(parts, "\n"))
}

// renderTimeline draws the axis for the visible row window. Entries sit at
// their mapped positions; gaps big enough to matter get a duration label
// midway, and the region past the oldest entry switches to a dotted axis.
func (j journalModel) renderTimeline(w, rows int) string {
	topRow := j.topRow
	marked := make(map[int]string)

	// Now marker.
	marked[0] = nowMarkStyle.Render("┳ now")

	// Gap labels between anchors.
	anchors := j.axis.Anchors
	for i := 1; i < len(anchors); i++ {
		a := anchors[i]
		newerRow := j.rowOf(anchors[i-1].Position)
		entryRow := j.rowOf(a.Position)
		if a.GapFromNewer >= 30*time.Minute && entryRow-newerRow >= 4 {
			mid := (newerRow + entryRow) / 2
			if mid != newerRow && mid != entryRow {
				if _, taken := marked[mid]; !taken {
					marked[mid] = axisStyle.Render("┊  ") + mutedStyle.Render("~ "+formatGap(a.GapFromNewer))
				}
			}
		}
	}

	// Entries.
	for i := 1; i < len(anchors); i++ {
		a := anchors[i]
		if a.EntryIndex < 0 || a.EntryIndex >= len(j.entries) {
			continue
		}
		marked[j.rowOf(a.Position)] = j.renderEntryLine(j.entries[a.EntryIndex], w)
	}

	// Draft marker wins its row.
	draftRow := -1
	if j.composing() {
		draftRow = j.rowOf(j.comp.Offset(j.axis))
		text := strings.TrimSpace(j.input.Value())
		if text == "" {
			text = "(draft)"
		}
		marked[draftRow] = draftMarkStyle.Render("◆ "+formatAgo(j.now.Sub(j.comp.Draft.Timestamp))+"  ") + titleStyle.Render(truncate(text, w-24))

		// Keep the draft in view.
		if draftRow < topRow {
			topRow = draftRow
		}
		if draftRow > topRow+rows-1 {
			topRow = draftRow - rows + 1
		}
	}

	oldestRow := j.oldestRow()
	lines := make([]string, 0, rows)
	for r := topRow; r < topRow+rows; r++ {
		if line, ok := marked[r]; ok {
			lines = append(lines, line)
			continue
		}
		if r > oldestRow {
			lines = append(lines, axisStyle.Render("┊"))
		} else {
			lines = append(lines, axisStyle.Render("│"))
		}
	}
	return strings.Join(lines, "\n")
}

func (j journalModel) renderEntryLine(e store.Entry, w int) string {
	mark := entryMarkStyle.Render("●")
	ago := highlightStyle.Render(formatAgo(j.now.Sub(e.Timestamp)))
	clock := mutedStyle.Render(e.Timestamp.Local().Format("15:04"))

	var enPart string
	if e.Energy != nil {
		enPart = "  " + energyStyle(*e.Energy).Render(fmt.Sprintf("▮%d", *e.Energy))
	}

	var desc string
	if e.Description != nil {
		desc = "  " + truncate(*e.Description, w-30)
	}

	return fmt.Sprintf("%s %s %s%s%s", mark, clock, ago, enPart, desc)
}

func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
