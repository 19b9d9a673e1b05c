// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/j-veylop/etc-monitor-tui/internal/derived"
	"github.com/j-veylop/etc-monitor-tui/internal/models"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Duration  time.Duration
	Type      NotificationType
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// Resource names a thing that can be loading.
type Resource string

// Loadable resources.
const (
	ResourceDashboard Resource = "dashboard"
	ResourceTraffic   Resource = "traffic"
	ResourceAlerts    Resource = "alerts"
	ResourceAnalysis  Resource = "analysis"
	ResourceJournal   Resource = "journal"
)

// State is shared between the root model and the tabs. Tabs read the
// committed dashboard from here; only the root model writes it.
type State struct {
	mu sync.RWMutex

	dashboard   *models.Dashboard
	summary     derived.Summary
	degraded    bool
	live        bool
	lastUpdated time.Time

	loading map[Resource]bool

	notifications   []Notification
	notificationSeq int
}

// NewState creates the shared state. The dashboard counts as loading until
// the first cycle commits.
func NewState() *State {
	return &State{
		loading:       map[Resource]bool{ResourceDashboard: true},
		notifications: make([]Notification, 0),
	}
}

// SetDashboard stores a committed dashboard and its view model.
func (s *State) SetDashboard(d *models.Dashboard, summary derived.Summary, degraded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dashboard = d
	s.summary = summary
	s.degraded = degraded
	s.loading[ResourceDashboard] = false
	if d != nil && !d.CommittedAt.IsZero() {
		s.lastUpdated = d.CommittedAt
	} else {
		s.lastUpdated = time.Now()
	}
}

// Dashboard returns the latest committed dashboard, or nil.
func (s *State) Dashboard() *models.Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dashboard
}

// Summary returns the view model of the latest committed dashboard.
func (s *State) Summary() derived.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// HasDashboard reports whether any cycle has committed.
func (s *State) HasDashboard() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dashboard != nil
}

// Degraded reports whether every source failed in the latest cycle.
func (s *State) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// SetLive records whether dashboard polling is running.
func (s *State) SetLive(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = running
}

// Live reports whether dashboard polling is running.
func (s *State) Live() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource Resource, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading[resource] = loading
}

// IsLoading reports whether resource is loading.
func (s *State) IsLoading(resource Resource) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading[resource]
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.loading {
		if l {
			return true
		}
	}
	return false
}

// IsInitialLoading returns true until the first dashboard commits.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dashboard == nil && s.loading[ResourceDashboard]
}

// LastUpdated returns the commit time of the latest dashboard.
func (s *State) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// TimeSinceUpdate returns the duration since the last update.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.lastUpdated)
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := fmt.Sprintf("n-%d", s.notificationSeq)

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns the notifications that have not expired.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.RemoveNotification(LoadingNotificationID)
}
