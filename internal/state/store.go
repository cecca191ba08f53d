package state

import (
	"sync"
	"time"

	"github.com/five82/iotdash/internal/iotapi"
	"github.com/five82/iotdash/internal/reconcile"
)

// User-visible error messages.
const (
	RefreshFailedMessage      = "Failed to load data. Please try again."
	DeleteDeviceFailedMessage = "Failed to delete device"
	UpdateDeviceFailedMessage = "Failed to update device"
	DeleteAlertFailedMessage  = "Failed to delete alert"
	ResolveAlertFailedMessage = "Failed to resolve alert"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Devices     []iotapi.Device
	Alerts      []iotapi.Alert
	DeviceStats iotapi.DeviceStats
	AlertStats  iotapi.AlertStats
	HasData     bool

	SelectedID  string
	Chart       []reconcile.Point
	ChartDevice string // device the chart points belong to
	ChartFailed []reconcile.Sensor

	Loading             bool
	LastUpdated         time.Time
	LastError           error
	ErrorMessage        string // user-visible, from refreshes and mutations
	ConsecutiveFailures int    // consecutive failed full refreshes
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// SelectedDevice returns the selected device when it is still listed.
func (s Snapshot) SelectedDevice() (iotapi.Device, bool) {
	if i := deviceIndex(s.Devices, s.SelectedID); i >= 0 {
		return s.Devices[i], true
	}
	return iotapi.Device{}, false
}

// ChartCurrent reports whether the chart belongs to the selected device.
func (s Snapshot) ChartCurrent() bool {
	return s.SelectedID != "" && s.ChartDevice == s.SelectedID
}

// RefreshData is the combined payload of one full refresh.
type RefreshData struct {
	Devices     []iotapi.Device
	Alerts      []iotapi.Alert
	DeviceStats iotapi.DeviceStats
	AlertStats  iotapi.AlertStats
}

// Ticket identifies one initiated refresh or chart fetch. Only the most
// recently issued ticket of each kind may commit.
type Ticket struct {
	seq    uint64
	target string
}

// Target returns the device a chart ticket was issued for.
func (t Ticket) Target() string {
	return t.target
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot

	refreshSeq uint64
	chartSeq   uint64
	inflight   int
	detached   bool
}

// BeginRefresh registers a new full refresh. Any refresh issued earlier
// becomes stale.
func (s *Store) BeginRefresh() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshSeq++
	s.inflight++
	s.snapshot.Loading = true
	return Ticket{seq: s.refreshSeq}
}

// CommitRefresh applies the outcome of the refresh identified by t. It
// returns false when the result was discarded as stale. When err is non-nil
// the previous data is kept but the error is recorded for visibility.
func (s *Store) CommitRefresh(t Ticket, data RefreshData, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight > 0 {
		s.inflight--
	}
	s.snapshot.Loading = s.inflight > 0

	if s.detached || t.seq != s.refreshSeq {
		return false
	}

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ErrorMessage = RefreshFailedMessage
		s.snapshot.ConsecutiveFailures++
		return true
	}

	s.snapshot.Devices = cloneDevices(data.Devices)
	s.snapshot.Alerts = cloneAlerts(data.Alerts)
	s.snapshot.DeviceStats = clampDeviceStats(data.DeviceStats)
	s.snapshot.AlertStats = clampAlertStats(data.AlertStats)
	s.snapshot.HasData = true
	s.snapshot.LastError = nil
	s.snapshot.ErrorMessage = ""
	s.snapshot.ConsecutiveFailures = 0
	return true
}

// Select makes id the selected device. It returns true when the selection
// changed; unknown ids are ignored.
func (s *Store) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached || id == s.snapshot.SelectedID || deviceIndex(s.snapshot.Devices, id) < 0 {
		return false
	}
	s.snapshot.SelectedID = id
	return true
}

// EnsureSelection selects the first listed device when nothing is selected
// or the selected device is gone. It returns the current selection and
// whether it changed.
func (s *Store) EnsureSelection() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached {
		return s.snapshot.SelectedID, false
	}
	if deviceIndex(s.snapshot.Devices, s.snapshot.SelectedID) >= 0 {
		return s.snapshot.SelectedID, false
	}
	prev := s.snapshot.SelectedID
	next := ""
	if len(s.snapshot.Devices) > 0 {
		next = s.snapshot.Devices[0].ID
	}
	s.snapshot.SelectedID = next
	if next == "" {
		s.snapshot.Chart = nil
		s.snapshot.ChartDevice = ""
		s.snapshot.ChartFailed = nil
	}
	return next, next != prev
}

// BeginChart registers a chart fetch for deviceID, making earlier chart
// fetches stale.
func (s *Store) BeginChart(deviceID string) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chartSeq++
	return Ticket{seq: s.chartSeq, target: deviceID}
}

// CommitChart stores chart points fetched under t. Results for a device that
// is no longer selected, or superseded by a newer fetch, are dropped.
func (s *Store) CommitChart(t Ticket, result reconcile.Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached || t.seq != s.chartSeq || t.target != s.snapshot.SelectedID {
		return false
	}
	s.snapshot.Chart = clonePoints(result.Points)
	s.snapshot.ChartDevice = t.target
	s.snapshot.ChartFailed = append([]reconcile.Sensor(nil), result.Failed...)
	return true
}

// ApplyDeviceDeleted removes a device after the server confirmed deletion.
func (s *Store) ApplyDeviceDeleted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached {
		return false
	}
	s.invalidateRefreshLocked()

	i := deviceIndex(s.snapshot.Devices, id)
	if i >= 0 {
		if s.snapshot.Devices[i].IsActive {
			s.snapshot.DeviceStats.Active = decrement(s.snapshot.DeviceStats.Active)
		}
		s.snapshot.Devices = removeAt(s.snapshot.Devices, i)
	}
	s.snapshot.DeviceStats.Total = decrement(s.snapshot.DeviceStats.Total)
	s.snapshot.ErrorMessage = ""
	return true
}

// ApplyDeviceUpdated replaces a device after the server confirmed an edit.
func (s *Store) ApplyDeviceUpdated(device iotapi.Device) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached {
		return false
	}
	s.invalidateRefreshLocked()

	i := deviceIndex(s.snapshot.Devices, device.ID)
	if i < 0 {
		return false
	}
	wasActive := s.snapshot.Devices[i].IsActive
	devices := cloneDevices(s.snapshot.Devices)
	devices[i] = device
	s.snapshot.Devices = devices

	switch {
	case wasActive && !device.IsActive:
		s.snapshot.DeviceStats.Active = decrement(s.snapshot.DeviceStats.Active)
	case !wasActive && device.IsActive:
		s.snapshot.DeviceStats.Active++
	}
	s.snapshot.ErrorMessage = ""
	return true
}

// ApplyAlertDeleted removes an alert after the server confirmed deletion.
func (s *Store) ApplyAlertDeleted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached {
		return false
	}
	s.invalidateRefreshLocked()

	if i := alertIndex(s.snapshot.Alerts, id); i >= 0 {
		if !s.snapshot.Alerts[i].IsResolved {
			s.snapshot.AlertStats.Unresolved = decrement(s.snapshot.AlertStats.Unresolved)
		}
		alerts := make([]iotapi.Alert, 0, len(s.snapshot.Alerts)-1)
		alerts = append(alerts, s.snapshot.Alerts[:i]...)
		alerts = append(alerts, s.snapshot.Alerts[i+1:]...)
		s.snapshot.Alerts = alerts
	}
	s.snapshot.AlertStats.Total = decrement(s.snapshot.AlertStats.Total)
	s.snapshot.ErrorMessage = ""
	return true
}

// ApplyAlertResolved marks an alert resolved after server confirmation.
// Resolving an already-resolved alert leaves the counters alone.
func (s *Store) ApplyAlertResolved(id string, resolvedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached {
		return false
	}
	s.invalidateRefreshLocked()
	s.snapshot.ErrorMessage = ""

	i := alertIndex(s.snapshot.Alerts, id)
	if i < 0 || s.snapshot.Alerts[i].IsResolved {
		return true
	}
	alerts := cloneAlerts(s.snapshot.Alerts)
	alerts[i] = alerts[i].MarkResolved(resolvedAt)
	s.snapshot.Alerts = alerts
	s.snapshot.AlertStats.Unresolved = decrement(s.snapshot.AlertStats.Unresolved)
	return true
}

// RecordFailure surfaces a user-visible error without touching data.
func (s *Store) RecordFailure(message string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached {
		return
	}
	s.snapshot.ErrorMessage = message
	if err != nil {
		s.snapshot.LastError = err
	}
}

// ClearError dismisses the user-visible error.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.ErrorMessage = ""
}

// Detach stops the store from accepting any further results. Tickets issued
// before or after Detach never commit.
func (s *Store) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.detached = true
	s.refreshSeq++
	s.chartSeq++
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Devices = cloneDevices(s.snapshot.Devices)
	snap.Alerts = cloneAlerts(s.snapshot.Alerts)
	snap.Chart = clonePoints(s.snapshot.Chart)
	snap.ChartFailed = append([]reconcile.Sensor(nil), s.snapshot.ChartFailed...)
	return snap
}

// invalidateRefreshLocked makes any in-flight refresh stale so a response
// requested before a mutation cannot undo it.
func (s *Store) invalidateRefreshLocked() {
	s.refreshSeq++
}

func deviceIndex(devices []iotapi.Device, id string) int {
	if id == "" {
		return -1
	}
	for i := range devices {
		if devices[i].ID == id {
			return i
		}
	}
	return -1
}

func alertIndex(alerts []iotapi.Alert, id string) int {
	for i := range alerts {
		if alerts[i].ID == id {
			return i
		}
	}
	return -1
}

func removeAt(devices []iotapi.Device, i int) []iotapi.Device {
	out := make([]iotapi.Device, 0, len(devices)-1)
	out = append(out, devices[:i]...)
	return append(out, devices[i+1:]...)
}

func decrement(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}

func clampDeviceStats(st iotapi.DeviceStats) iotapi.DeviceStats {
	st.Total = max(st.Total, 0)
	st.Active = max(st.Active, 0)
	return st
}

func clampAlertStats(st iotapi.AlertStats) iotapi.AlertStats {
	st.Total = max(st.Total, 0)
	st.Unresolved = max(st.Unresolved, 0)
	return st
}

func cloneDevices(items []iotapi.Device) []iotapi.Device {
	if len(items) == 0 {
		return nil
	}
	dup := make([]iotapi.Device, len(items))
	copy(dup, items)
	return dup
}

func cloneAlerts(items []iotapi.Alert) []iotapi.Alert {
	if len(items) == 0 {
		return nil
	}
	dup := make([]iotapi.Alert, len(items))
	copy(dup, items)
	return dup
}

func clonePoints(items []reconcile.Point) []reconcile.Point {
	if len(items) == 0 {
		return nil
	}
	dup := make([]reconcile.Point, len(items))
	copy(dup, items)
	return dup
}
