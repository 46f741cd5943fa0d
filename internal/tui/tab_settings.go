package tui

import (
	"fmt"
	"strings"

	"github.com/mwasalski/financial-app/internal/cli"
	"github.com/mwasalski/financial-app/internal/config"
	"github.com/mwasalski/financial-app/internal/tui/components"
	"github.com/mwasalski/financial-app/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldTheme = iota
	settingsFieldCurrency
	settingsFieldBackend
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message until the next change
	saveErr error // non-nil if last save failed
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 16
	ti.Width = 20
	return ti
}

// settingsActivate changes the selected field: cycles theme and backend,
// opens a text input for the currency.
func (a App) settingsActivate() (tea.Model, tea.Cmd) {
	a.settings.saved = false

	switch a.settings.cursor {
	case settingsFieldTheme:
		next := theme.Next(a.cfg.Appearance.Theme)
		a.cfg.Appearance.Theme = next.Name
		theme.SetActive(next.Name)
		a.spinner.Style = a.spinner.Style.Foreground(next.Accent)
	case settingsFieldBackend:
		if a.cfg.General.Backend == config.BackendSQLite {
			a.cfg.General.Backend = config.BackendFile
		} else {
			a.cfg.General.Backend = config.BackendSQLite
		}
	case settingsFieldCurrency:
		ti := newSettingsInput()
		ti.Placeholder = cli.DefaultCurrency
		ti.SetValue(a.cfg.General.Currency)
		ti.Focus()
		a.settings.input = ti
		a.settings.editing = true
		return a, ti.Cursor.BlinkCmd()
	}

	a.settingsSave()
	return a, nil
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if v := strings.TrimSpace(a.settings.input.Value()); v != "" {
			a.cfg.General.Currency = v
			a.settingsSave()
		}
		a.settings.editing = false
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave merges the edited fields into the config file, leaving
// environment and flag overrides out of it.
func (a *App) settingsSave() {
	onDisk, err := config.LoadFile()
	if err != nil {
		a.settings.saveErr = err
		a.settings.saved = false
		return
	}
	onDisk.Appearance.Theme = a.cfg.Appearance.Theme
	onDisk.General.Currency = a.cfg.General.Currency
	onDisk.General.Backend = a.cfg.General.Backend

	a.settings.saveErr = config.Save(onDisk)
	a.settings.saved = a.settings.saveErr == nil
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	positiveStyle := lipgloss.NewStyle().Foreground(t.Positive).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	backend := a.cfg.General.Backend
	if backend != a.backend {
		backend += " (after restart)"
	}

	fields := []struct{ label, value string }{
		{"Theme", a.cfg.Appearance.Theme},
		{"Currency", a.currency()},
		{"Storage backend", backend},
	}

	innerW := components.CardInnerWidth(cw)
	var form strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			form.WriteString(a.settings.input.View())
			form.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			form.WriteString(marker + label + value)
			if pad := innerW - lipgloss.Width(marker+label+value); pad > 0 {
				form.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		} else {
			form.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			form.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			form.WriteString(valueStyle.Render(f.value))
		}
		form.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		form.WriteString("\n")
		form.WriteString(lipgloss.NewStyle().Foreground(t.Warning).Background(t.Surface).
			Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		form.WriteString("\n")
		form.WriteString(positiveStyle.Render("Saved to " + config.ConfigPath()))
	}
	form.WriteString("\n")
	form.WriteString(dimStyle.Render("[j/k] navigate  [Enter] change  [Esc] cancel"))

	var info strings.Builder
	row := func(label, value string) {
		info.WriteString(labelStyle.Render(fmt.Sprintf("%-16s ", label)) + valueStyle.Render(value) + "\n")
	}
	row("State", a.st.Path())
	row("Loaded from", string(a.info.Source))
	if a.info.Reason != "" {
		row("Note", a.info.Reason)
	}
	row("Records", cli.FormatNumber(int64(a.records.RecordCount())))
	row("Load time", fmt.Sprintf("%dms", a.loadTime.Milliseconds()))
	info.WriteString(labelStyle.Render(fmt.Sprintf("%-16s ", "Config file")) + valueStyle.Render(config.ConfigPath()))

	return components.ContentCard("Settings", form.String(), cw) + "\n" +
		components.ContentCard("Storage", info.String(), cw)
}
