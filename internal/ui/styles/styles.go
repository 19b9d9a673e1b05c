// Package styles defines the visual styling for the application.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/etc-monitor-tui/internal/derived"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
)

// Color definitions for the console theme.
var (
	// Primary colors
	Primary   = lipgloss.Color("205") // Pink
	Secondary = lipgloss.Color("63")  // Purple
	Subtle    = lipgloss.Color("240") // Gray

	// Orange marks congested stations.
	Orange = lipgloss.Color("208")

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Info    = lipgloss.Color("39")  // Blue

	// Background colors
	BgDark   = lipgloss.Color("235")
	BgLight  = lipgloss.Color("237")
	BgAccent = lipgloss.Color("236")

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")

	// ToastStyle for floating notifications.
	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Margin(1, 2).
	Padding(0, 1)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(1, 2).
	MarginBottom(1)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// FocusedStyle is used for focused input elements.
var FocusedStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true)

// BlurredStyle is used for unfocused input elements.
var BlurredStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// FocusedBorderStyle creates a focused border.
var FocusedBorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Primary).
	Padding(0, 1)

// HelpStyle is the base style for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// HelpPanelStyle creates the help overlay panel.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 3).
	Background(BgDark)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// SuccessTextStyle for success messages.
var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

// WarningTextStyle for warning messages.
var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)

// InfoTextStyle for info messages.
var InfoTextStyle = lipgloss.NewStyle().
	Foreground(Info)

// ButtonStyle is the base button style.
var ButtonStyle = lipgloss.NewStyle().
	Padding(0, 2).
	MarginRight(1)

// ButtonActiveStyle styles active/focused buttons.
var ButtonActiveStyle = ButtonStyle.
	Background(Primary).
	Foreground(lipgloss.Color("229")).
	Bold(true)

// ButtonInactiveStyle styles unfocused buttons.
var ButtonInactiveStyle = ButtonStyle.
	Background(BgLight).
	Foreground(TextSecondary)

// StatCardStyle frames one headline number on the dashboard.
var StatCardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Secondary).
	Padding(0, 2).
	MarginRight(1)

// StatValueStyle styles the number inside a stat card.
var StatValueStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(TextPrimary)

// StatLabelStyle styles the caption inside a stat card.
var StatLabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// SourceOKStyle marks a source whose last fetch succeeded.
var SourceOKStyle = lipgloss.NewStyle().
	Foreground(Success)

// SourceStaleStyle marks a failed source that still shows earlier data.
var SourceStaleStyle = lipgloss.NewStyle().
	Foreground(Warning)

// SourceDownStyle marks a source that has never delivered data.
var SourceDownStyle = lipgloss.NewStyle().
	Foreground(Error).
	Bold(true)

// Congestion level colors.
var (
	LevelSmoothStyle    = lipgloss.NewStyle().Foreground(Success)
	LevelSlowStyle      = lipgloss.NewStyle().Foreground(Warning)
	LevelCongestedStyle = lipgloss.NewStyle().Foreground(Orange).Bold(true)
	LevelSevereStyle    = lipgloss.NewStyle().Foreground(Error).Bold(true)
)

// GetLevelStyle returns the style for a congestion level.
func GetLevelStyle(level derived.CongestionLevel) lipgloss.Style {
	switch level {
	case derived.LevelSmooth:
		return LevelSmoothStyle
	case derived.LevelSlow:
		return LevelSlowStyle
	case derived.LevelCongested:
		return LevelCongestedStyle
	default:
		return LevelSevereStyle
	}
}

// GetSourceStyle returns the style for a source status.
func GetSourceStyle(st models.SourceStatus) lipgloss.Style {
	switch {
	case st.OK:
		return SourceOKStyle
	case st.HasData:
		return SourceStaleStyle
	default:
		return SourceDownStyle
	}
}

// GetUptimeStyle colors a device uptime percentage.
func GetUptimeStyle(pct float64) lipgloss.Style {
	switch {
	case pct >= 99:
		return SuccessTextStyle
	case pct >= 95:
		return WarningTextStyle
	default:
		return ErrorTextStyle
	}
}

// CenterBoth centers content both horizontally and vertically.
func CenterBoth(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Render(content)
}
