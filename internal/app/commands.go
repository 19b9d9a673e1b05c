package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/etc-monitor-tui/internal/models"
	"github.com/j-veylop/etc-monitor-tui/internal/services"
	"github.com/j-veylop/etc-monitor-tui/internal/services/query"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second

	// JournalCycleLimit is how many journaled cycles the info tab shows.
	JournalCycleLimit = 10

	// JournalFailureWindow is how far back failures are counted.
	JournalFailureWindow = 24 * time.Hour
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

func notifyCmd(t NotificationType, message string, d time.Duration) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{Type: t, Message: message, Duration: d}
	}
}

// NotifySuccess returns a command that adds a success notification.
func NotifySuccess(message string) tea.Cmd {
	return notifyCmd(NotificationSuccess, message, DefaultNotificationDuration)
}

// NotifyError returns a command that adds an error notification.
func NotifyError(message string) tea.Cmd {
	return notifyCmd(NotificationError, message, LongNotificationDuration)
}

// NotifyWarning returns a command that adds a warning notification.
func NotifyWarning(message string) tea.Cmd {
	return notifyCmd(NotificationWarning, message, DefaultNotificationDuration)
}

// NotifyInfo returns a command that adds an info notification.
func NotifyInfo(message string) tea.Cmd {
	return notifyCmd(NotificationInfo, message, QuickNotificationDuration)
}

// FetchTraffic runs a traffic ticket. A nil ticket yields no command.
func FetchTraffic(mgr *services.Manager, req *query.TrafficRequest) tea.Cmd {
	if req == nil {
		return nil
	}
	browser := mgr.Traffic()
	ctx := mgr.Context()
	return func() tea.Msg {
		return TrafficLoadedMsg{Result: browser.Fetch(ctx, req)}
	}
}

// FetchAlerts runs an alert ticket. A nil ticket yields no command.
func FetchAlerts(mgr *services.Manager, req *query.AlertRequest) tea.Cmd {
	if req == nil {
		return nil
	}
	browser := mgr.Alerts()
	ctx := mgr.Context()
	return func() tea.Msg {
		return AlertsLoadedMsg{Result: browser.Fetch(ctx, req)}
	}
}

// LoadStats returns a command that loads statistics for tr.
func LoadStats(mgr *services.Manager, tr models.TimeRange) tea.Cmd {
	ctx := mgr.Context()
	return func() tea.Msg {
		summary, err := mgr.Stats(ctx, tr)
		return StatsLoadedMsg{Range: tr, Summary: summary, Err: err}
	}
}

// LoadRevenue returns a command that loads the revenue forecast.
func LoadRevenue(mgr *services.Manager) tea.Cmd {
	ctx := mgr.Context()
	return func() tea.Msg {
		rev, err := mgr.Revenue(ctx)
		return RevenueLoadedMsg{Revenue: rev, Err: err}
	}
}

// LoadJournal returns a command that reads recent journal entries.
func LoadJournal(mgr *services.Manager) tea.Cmd {
	if !mgr.JournalEnabled() {
		return nil
	}
	parent := mgr.Context()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, 5*time.Second)
		defer cancel()

		cycles, err := mgr.RecentCycles(ctx, JournalCycleLimit)
		if err != nil {
			return JournalLoadedMsg{Err: err}
		}
		failures, err := mgr.SourceFailures(ctx, time.Now().Add(-JournalFailureWindow))
		return JournalLoadedMsg{Cycles: cycles, Failures: failures, Err: err}
	}
}
