package info

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/etc-monitor-tui/internal/models"
	"github.com/j-veylop/etc-monitor-tui/internal/telemetry"
	"github.com/j-veylop/etc-monitor-tui/internal/ui/styles"
	"github.com/j-veylop/etc-monitor-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderSourcesCard(),
		m.renderJournalCard(),
		m.renderAboutCard(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, source health and poll history")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	w := m.width - 6
	if w < 50 {
		w = 50
	}
	if w > 90 {
		w = 90
	}
	return w
}

func (m *Model) card(rows ...string) string {
	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// renderConfigCard renders the effective configuration.
func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration"), ""}

	cfg := m.config
	if cfg == nil {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
		return m.card(rows...)
	}

	metrics := "disabled"
	if addr := m.services.MetricsAddr(); addr != "" {
		metrics = "http://" + addr + "/metrics"
	}
	logFile := cfg.LogFile
	if logFile == "" {
		logFile = "(discarded)"
	}

	rows = append(rows,
		m.renderConfigRow("API Base URL", cfg.APIBaseURL),
		m.renderConfigRow("Poll Interval", cfg.PollInterval.String()),
		m.renderConfigRow("Request Timeout", cfg.RequestTimeout.String()),
		m.renderConfigRow("Window", fmt.Sprintf("%d min", cfg.WindowMinutes)),
		m.renderConfigRow("Alerts Size", fmt.Sprintf("%d", cfg.AlertsSize)),
		m.renderConfigRow("Page Size", fmt.Sprintf("%d", cfg.PageSize)),
		m.renderConfigRow("Lookup Tables", orNone(cfg.LookupTablesPath)),
		m.renderConfigRow("Cycle Journal", orNone(cfg.JournalPath)),
		m.renderConfigRow("Metrics", metrics),
		m.renderConfigRow("Notifications", onOff(cfg.NotificationsEnabled)),
		m.renderConfigRow("Log", fmt.Sprintf("%s (%s)", logFile, cfg.LogLevel)),
	)

	return m.card(rows...)
}

// renderConfigRow renders a configuration key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderSourcesCard lists each polled source with its last success.
func (m *Model) renderSourcesCard() string {
	rows := []string{styles.CardTitleStyle.Render("Sources"), ""}

	d := m.state.Dashboard()
	if d == nil {
		rows = append(rows, styles.HelpStyle.Render("No poll cycle has completed"))
		return m.card(rows...)
	}

	for _, src := range models.Sources {
		st, _ := d.SourceStatus(src)
		state := "ok"
		switch {
		case st.OK:
		case st.HasData:
			state = "stale"
		default:
			state = "down"
		}
		last := "never"
		if !st.LastSuccess.IsZero() {
			last = st.LastSuccess.Format("15:04:05")
		}
		value := styles.GetSourceStyle(st).Render(state) + "  last ok " + last
		rows = append(rows, m.renderConfigRow(string(src), value))
		if st.Err != "" && !st.OK {
			rows = append(rows, styles.ErrorTextStyle.Render("  "+st.Err))
		}
	}

	return m.card(rows...)
}

// renderJournalCard shows recent journaled cycles and failure counts.
func (m *Model) renderJournalCard() string {
	rows := []string{styles.CardTitleStyle.Render("Cycle Journal"), ""}

	switch {
	case !m.journalEnabled():
		rows = append(rows, styles.HelpStyle.Render("Cycle journal disabled. Set CYCLE_JOURNAL_PATH to enable it."))
		return m.card(rows...)
	case m.journalErr != nil:
		rows = append(rows, styles.ErrorTextStyle.Render("Read failed: "+m.journalErr.Error()))
		return m.card(rows...)
	case !m.journalLoaded:
		rows = append(rows, styles.HelpStyle.Render("Loading..."))
		return m.card(rows...)
	case len(m.cycles) == 0:
		rows = append(rows, styles.HelpStyle.Render("No cycles journaled yet"))
		return m.card(rows...)
	}

	for _, c := range m.cycles {
		outcome := styles.SuccessTextStyle.Render(c.Outcome)
		if c.Outcome != telemetry.OutcomeCommitted {
			outcome = styles.WarningTextStyle.Render(c.Outcome)
		}
		line := fmt.Sprintf("#%-5d %s  %-9s  %6s  live %-6d alerts %d",
			c.Seq, c.CommittedAt.Format("15:04:05"), outcome,
			c.Duration.Round(time.Millisecond), c.LiveTotal, c.AlertCount)
		if len(c.FailedSources) > 0 {
			names := make([]string, len(c.FailedSources))
			for i, s := range c.FailedSources {
				names[i] = string(s)
			}
			line += styles.ErrorTextStyle.Render("  failed: " + strings.Join(names, ","))
		}
		rows = append(rows, line)
	}

	if len(m.failures) > 0 {
		rows = append(rows, "", styles.HelpStyle.Render("Failures in the last 24h"))
		for _, f := range m.failures {
			rows = append(rows, m.renderConfigRow(string(f.Source), fmt.Sprintf("%d", f.Count)))
		}
	}

	return m.card(rows...)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	rows := []string{styles.CardTitleStyle.Render("About ETC Monitor"), ""}

	rows = append(rows,
		m.renderConfigRow("Version", version.GetVersion()),
		m.renderConfigRow("Build Date", version.GetDate()),
		m.renderConfigRow("Git Commit", version.GetCommit()),
		m.renderConfigRow("Go Version", runtime.Version()),
		m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	)
	if m.services != nil {
		rows = append(rows,
			m.renderConfigRow("Run ID", m.services.RunID()),
			m.renderConfigRow("Stations", fmt.Sprintf("%d", m.services.Tables().StationCount())),
		)
	}

	return m.card(rows...)
}
