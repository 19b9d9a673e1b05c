package app

import (
	"time"

	"github.com/j-veylop/etc-monitor-tui/internal/derived"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
	"github.com/j-veylop/etc-monitor-tui/internal/services"
	"github.com/j-veylop/etc-monitor-tui/internal/services/query"
)

// TickMsg is sent periodically to expire notifications.
type TickMsg struct {
	Time time.Time
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Duration time.Duration
	Type     NotificationType
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg carries the channel returned by the manager subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// DashboardUpdatedMsg is forwarded to tabs after a poll cycle commits.
type DashboardUpdatedMsg struct {
	Dashboard *models.Dashboard
	Summary   derived.Summary
	Degraded  bool
}

// LiveStateMsg is forwarded to tabs when polling starts or stops.
type LiveStateMsg struct {
	Running bool
}

// TrafficLoadedMsg carries a finished traffic query.
type TrafficLoadedMsg struct {
	Result query.TrafficResult
}

// AlertsLoadedMsg carries a finished alert query.
type AlertsLoadedMsg struct {
	Result query.AlertResult
}

// StatsLoadedMsg carries traffic statistics for a time range.
type StatsLoadedMsg struct {
	Err     error
	Summary derived.StatsSummary
	Range   models.TimeRange
}

// RevenueLoadedMsg carries the revenue forecast.
type RevenueLoadedMsg struct {
	Err     error
	Revenue services.Revenue
}

// JournalLoadedMsg carries recent journaled cycles and failure counts.
type JournalLoadedMsg struct {
	Err      error
	Cycles   []models.CycleRecord
	Failures []models.SourceFailureCount
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
