// Package tui provides the interactive Bubble Tea dashboard for finapp.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mwasalski/financial-app/internal/cli"
	"github.com/mwasalski/financial-app/internal/config"
	"github.com/mwasalski/financial-app/internal/ledger"
	"github.com/mwasalski/financial-app/internal/model"
	"github.com/mwasalski/financial-app/internal/projection"
	"github.com/mwasalski/financial-app/internal/store"
	"github.com/mwasalski/financial-app/internal/tui/components"
	"github.com/mwasalski/financial-app/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// RecordsLoadedMsg is sent when the store has been read.
type RecordsLoadedMsg struct {
	Records  model.RecordSet
	Info     store.LoadInfo
	Err      error
	LoadTime time.Duration
}

// savedMsg reports the outcome of persisting an edit.
type savedMsg struct {
	records model.RecordSet
	notice  string
	err     error
}

const (
	tabTimeline = iota
	tabRecords
	tabIncome
	tabSettings
)

// App is the root Bubble Tea model.
type App struct {
	st      store.Store
	cfg     config.Config
	backend string // backend st was opened with
	now     model.MonthKey

	// Data
	records  model.RecordSet
	info     store.LoadInfo
	loaded   bool
	loadErr  error
	loadTime time.Duration
	saving   bool

	// Derived from records
	rows    []model.MonthRow
	summary model.Summary
	totals  model.Totals

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	notice    string
	noticeErr bool

	// Per-tab state
	timelineScroll int
	recState       recordsState
	settings       settingsState

	// Modal huh form for add / income / reset
	form     *huh.Form
	formKind formKind
	formVals *formValues

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180
	minContentHeight = 5

	storeTimeout = 10 * time.Second
)

// NewApp creates a new TUI app model. now is the month treated as current;
// needSetup shows the first-run wizard once records are loaded.
func NewApp(cfg config.Config, st store.Store, now model.MonthKey, needSetup bool) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		st:        st,
		cfg:       cfg,
		backend:   cfg.General.Backend,
		now:       now,
		needSetup: needSetup,
		spinner:   sp,
		settings:  settingsState{input: newSettingsInput()},
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadRecordsCmd(a.st),
		a.spinner.Tick,
	)
}

func (a *App) recompute() {
	a.rows = projection.Timeline(a.records, a.now)
	a.summary = projection.Summarize(a.rows, a.now)
	a.totals = projection.Sum(a.rows)

	items := len(flattenRecords(a.records))
	if a.recState.cursor >= items {
		a.recState.cursor = items - 1
	}
	if a.recState.cursor < 0 {
		a.recState.cursor = 0
	}
	if a.timelineScroll >= len(a.rows) {
		a.timelineScroll = max(0, len(a.rows)-1)
	}
}

func (a *App) setNotice(msg string, isErr bool) {
	a.notice = msg
	a.noticeErr = isErr
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		if a.form != nil {
			a.form = a.form.WithWidth(a.formWidth())
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil || a.form != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.scroll(-1)
		case tea.MouseButtonWheelDown:
			a.scroll(1)
		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case RecordsLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		if msg.Err != nil {
			a.loadErr = msg.Err
			a.setNotice("load failed: "+msg.Err.Error(), true)
		} else {
			a.loadErr = nil
			a.records = msg.Records
			a.info = msg.Info
			a.recompute()
			a.setNotice("", false)
			if msg.Info.Reason != "" {
				a.setNotice(msg.Info.Reason, true)
			}
		}

		if a.needSetup && a.setupForm == nil {
			a.setupVals = SetupValuesFrom(a.cfg)
			a.setupForm = NewSetupForm(a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case savedMsg:
		a.saving = false
		if msg.err != nil {
			a.setNotice("save failed: "+msg.err.Error(), true)
			return a, nil
		}
		a.records = msg.records
		a.info = store.LoadInfo{Source: store.SourceStored}
		a.recompute()
		a.setNotice(msg.notice, false)
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages (cursor blinks, etc.) to an open form.
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.form != nil {
		return a.updateForm(msg)
	}
	if a.settings.editing {
		var cmd tea.Cmd
		a.settings.input, cmd = a.settings.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}

	// Forms intercept all keys.
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.form != nil {
		if key == "esc" {
			a.closeForm()
			a.setNotice("cancelled", false)
			return a, nil
		}
		return a.updateForm(msg)
	}
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	if m, cmd, ok := a.updateTabKey(key); ok {
		return m, cmd
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		a.setNotice("reloading...", false)
		return a, loadRecordsCmd(a.st)
	case "X":
		return a.openForm(formReset)
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	default:
		if len(msg.Runes) == 1 {
			if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

// updateTabKey handles keys owned by the active tab.
func (a App) updateTabKey(key string) (tea.Model, tea.Cmd, bool) {
	switch a.activeTab {
	case tabTimeline:
		switch key {
		case "j", "down":
			a.scroll(1)
			return a, nil, true
		case "k", "up":
			a.scroll(-1)
			return a, nil, true
		case "g":
			a.timelineScroll = 0
			return a, nil, true
		case "n":
			a.timelineScroll = a.currentRowIndex()
			return a, nil, true
		}

	case tabRecords:
		items := flattenRecords(a.records)
		switch key {
		case "j", "down":
			a.scroll(1)
			return a, nil, true
		case "k", "up":
			a.scroll(-1)
			return a, nil, true
		case "g":
			a.recState.cursor = 0
			return a, nil, true
		case "G":
			a.recState.cursor = max(0, len(items)-1)
			return a, nil, true
		case "a":
			m, cmd := a.openForm(formAdd)
			return m, cmd, true
		case "d", "delete":
			if len(items) == 0 {
				return a, nil, true
			}
			it := items[a.recState.cursor]
			m, cmd := a.apply(edit{
				apply: func(rs model.RecordSet) (model.RecordSet, error) {
					return ledger.Remove(rs, it.kind, it.id)
				},
				notice: fmt.Sprintf("deleted %s %s", it.kind, cli.ShortID(it.id)),
			})
			return m, cmd, true
		}

	case tabIncome:
		switch key {
		case "m":
			next := model.ModeSelfEmployed
			if a.records.Mode == model.ModeSelfEmployed {
				next = model.ModeEmployment
			}
			m, cmd := a.apply(edit{
				apply: func(rs model.RecordSet) (model.RecordSet, error) {
					return ledger.SetMode(rs, next)
				},
				notice: "mode: " + next.Label(),
			})
			return m, cmd, true
		case "e", "enter":
			m, cmd := a.openForm(formIncome)
			return m, cmd, true
		}

	case tabSettings:
		switch key {
		case "j", "down":
			if a.settings.cursor < settingsFieldCount-1 {
				a.settings.cursor++
			}
			return a, nil, true
		case "k", "up":
			if a.settings.cursor > 0 {
				a.settings.cursor--
			}
			return a, nil, true
		case "enter", " ":
			m, cmd := a.settingsActivate()
			return m, cmd, true
		}
	}
	return a, nil, false
}

func (a *App) scroll(delta int) {
	switch a.activeTab {
	case tabTimeline:
		a.timelineScroll = max(0, min(a.timelineScroll+delta, len(a.rows)-1))
	case tabRecords:
		n := len(flattenRecords(a.records))
		a.recState.cursor = max(0, min(a.recState.cursor+delta, n-1))
	}
}

// apply runs a ledger command against the loaded records and saves the
// result. The view updates once the save succeeds.
func (a App) apply(e edit) (tea.Model, tea.Cmd) {
	if a.saving {
		a.setNotice("still saving, try again", true)
		return a, nil
	}
	if a.loadErr != nil {
		a.setNotice("records failed to load; press r to retry", true)
		return a, nil
	}
	next, err := e.apply(a.records)
	if err != nil {
		a.setNotice(err.Error(), true)
		return a, nil
	}
	a.saving = true
	return a, saveRecordsCmd(a.st, next, e.notice)
}

func (a App) openForm(kind formKind) (tea.Model, tea.Cmd) {
	v := &formValues{}
	switch kind {
	case formAdd:
		a.form = newAddForm(v, a.now)
	case formIncome:
		a.form = newIncomeForm(v, a.records)
	case formReset:
		a.form = newResetForm(v)
	default:
		return a, nil
	}
	a.formKind = kind
	a.formVals = v
	a.form = a.form.WithWidth(a.formWidth())
	return a, a.form.Init()
}

func (a *App) closeForm() {
	a.form = nil
	a.formKind = formNone
	a.formVals = nil
}

func (a App) formWidth() int {
	return max(40, min(72, a.contentWidth()-8))
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		kind, v := a.formKind, a.formVals
		a.closeForm()
		return a.submitForm(kind, v)
	case huh.StateAborted:
		a.closeForm()
		a.setNotice("cancelled", false)
		return a, nil
	}
	return a, cmd
}

func (a App) submitForm(kind formKind, v *formValues) (tea.Model, tea.Cmd) {
	var (
		e   edit
		err error
	)
	switch kind {
	case formAdd:
		e, err = v.addEdit()
	case formIncome:
		e, err = v.incomeEdit()
	case formReset:
		if !v.confirm {
			a.setNotice("reset cancelled", false)
			return a, nil
		}
		now := a.now
		e = edit{
			apply: func(model.RecordSet) (model.RecordSet, error) {
				return ledger.Default(now), nil
			},
			notice: "records reset",
		}
	}
	if err != nil {
		a.setNotice(err.Error(), true)
		return a, nil
	}
	return a.apply(e)
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		prevBackend := a.cfg.General.Backend
		a.cfg = a.setupVals.Apply(a.cfg)
		theme.SetActive(a.cfg.Appearance.Theme)
		if err := config.Save(a.cfg); err != nil {
			a.setNotice("could not save config: "+err.Error(), true)
		} else if a.cfg.General.Backend != prevBackend {
			a.setNotice("saved; storage backend applies on next start", false)
		} else {
			a.setNotice("saved "+config.ConfigPath(), false)
		}
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// currentRowIndex is the timeline index of the current month.
func (a App) currentRowIndex() int {
	for i, r := range a.rows {
		if r.Month == a.now {
			return i
		}
	}
	return 0
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	if a.form != nil {
		return a.viewForm()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  finapp needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ finapp"))
	b.WriteString(subtitleStyle.Render(" · cash-flow timeline"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(" Loading records from " + a.st.Path()))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewForm() string {
	t := theme.Active

	title := map[formKind]string{
		formAdd:    "Add record",
		formIncome: "Income",
		formReset:  "Reset records",
	}[a.formKind]

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	body := titleStyle.Render("◈ "+title) + "\n\n" + a.form.View() + "\n" + hintStyle.Render("esc cancel")
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Info).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"t c i s", "Jump to tab"},
			{"← → tab", "Previous / Next tab"},
			{"j k", "Scroll timeline / move in lists"},
			{"g G", "Top / bottom"},
			{"n", "Timeline: jump to current month"},
		}},
		{"Editing", []struct{ key, desc string }{
			{"a", "Records: add a record"},
			{"d", "Records: delete selected"},
			{"m", "Income: switch mode"},
			{"e", "Income: edit parameters"},
			{"Enter", "Settings: change value"},
			{"X", "Reset to starter data"},
		}},
		{"General", []struct{ key, desc string }{
			{"r", "Reload from storage"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + info row
	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	info := pillStyle.Render(" ") +
		accentStyle.Render(cli.FormatMonthLong(a.now)) +
		pillStyle.Render(" │ ") + accentStyle.Render(a.records.Mode.Label()) +
		pillStyle.Render(" │ ") + accentStyle.Render(fmt.Sprintf("%d months", len(a.rows))) +
		pillStyle.Render(" │ ") + accentStyle.Render(fmt.Sprintf("%d records", a.records.RecordCount()))
	if a.info.Source != "" && a.info.Source != store.SourceStored {
		info += pillStyle.Render(" │ ") + lipgloss.NewStyle().Foreground(t.Warning).Background(t.Surface).Render(string(a.info.Source))
	}
	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(info)

	// 2. Status bar
	status := components.Status{
		Hints:   a.tabHints(),
		Notice:  a.notice,
		IsError: a.noticeErr,
		Source:  a.st.Path(),
	}
	if a.saving {
		status.Notice, status.IsError = "saving...", false
	}
	statusBar := components.RenderStatusBar(w, status)

	// 3. Content zone height
	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	// 4. Tab content
	var content string
	switch a.activeTab {
	case tabTimeline:
		content = a.renderTimelineTab(cw, contentH)
	case tabRecords:
		content = a.renderRecordsTab(cw, contentH)
	case tabIncome:
		content = a.renderIncomeTab(cw)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	// 5. Truncate + pad to exactly contentH lines, fill the background
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) tabHints() string {
	switch a.activeTab {
	case tabTimeline:
		return "[j/k]scroll [n]ow"
	case tabRecords:
		return "[a]dd [d]elete"
	case tabIncome:
		return "[m]ode [e]dit"
	case tabSettings:
		return "[enter]change"
	}
	return ""
}

// ─── Commands ───────────────────────────────────────────────────

func loadRecordsCmd(st store.Store) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		rs, info, err := st.Load(ctx)
		return RecordsLoadedMsg{Records: rs, Info: info, Err: err, LoadTime: time.Since(start)}
	}
}

func saveRecordsCmd(st store.Store, rs model.RecordSet, notice string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		if err := st.Save(ctx, rs); err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{records: rs, notice: notice}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes follow the same width rules as RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		if i < len(components.Tabs)-1 {
			pos++ // separator
		}
	}
	return -1
}
