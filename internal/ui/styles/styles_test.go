package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/etc-monitor-tui/internal/derived"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
)

func sameColor(a, b lipgloss.Style) bool {
	return a.GetForeground() == b.GetForeground()
}

func TestGetLevelStyle(t *testing.T) {
	tests := []struct {
		level derived.CongestionLevel
		want  lipgloss.Style
	}{
		{derived.LevelSmooth, LevelSmoothStyle},
		{derived.LevelSlow, LevelSlowStyle},
		{derived.LevelCongested, LevelCongestedStyle},
		{derived.LevelSevere, LevelSevereStyle},
	}
	for _, tt := range tests {
		if !sameColor(GetLevelStyle(tt.level), tt.want) {
			t.Errorf("GetLevelStyle(%v) has the wrong color", tt.level)
		}
	}
}

func TestGetSourceStyle(t *testing.T) {
	tests := []struct {
		name string
		st   models.SourceStatus
		want lipgloss.Style
	}{
		{"ok", models.SourceStatus{OK: true, HasData: true}, SourceOKStyle},
		{"stale", models.SourceStatus{HasData: true, Err: "timeout"}, SourceStaleStyle},
		{"down", models.SourceStatus{Err: "connection refused"}, SourceDownStyle},
	}
	for _, tt := range tests {
		if !sameColor(GetSourceStyle(tt.st), tt.want) {
			t.Errorf("%s: wrong style", tt.name)
		}
	}
}

func TestGetUptimeStyle(t *testing.T) {
	tests := []struct {
		pct  float64
		want lipgloss.Style
	}{
		{99.9, SuccessTextStyle},
		{99, SuccessTextStyle},
		{97.5, WarningTextStyle},
		{80, ErrorTextStyle},
	}
	for _, tt := range tests {
		if !sameColor(GetUptimeStyle(tt.pct), tt.want) {
			t.Errorf("GetUptimeStyle(%v) has the wrong color", tt.pct)
		}
	}
}

func TestCenterBoth(t *testing.T) {
	out := CenterBoth("x", 9, 3)
	if lipgloss.Width(out) != 9 || lipgloss.Height(out) != 3 {
		t.Errorf("CenterBoth size = %dx%d, want 9x3", lipgloss.Width(out), lipgloss.Height(out))
	}
}
