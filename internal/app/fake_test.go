package app

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/five82/iotdash/internal/iotapi"
)

// fakeFetcher serves canned data; readings can be overridden per test.
type fakeFetcher struct {
	mu          sync.Mutex
	devices     []iotapi.Device
	alerts      []iotapi.Alert
	deviceStats iotapi.DeviceStats
	alertStats  iotapi.AlertStats
	listErr     error
	refreshes   int

	readings func(ctx context.Context, q iotapi.ReadingQuery) ([]iotapi.SensorReading, error)

	// alertsGate, when set, holds ListAlerts until closed.
	alertsGate    chan struct{}
	alertsStarted chan struct{}
}

func (f *fakeFetcher) setListErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

func (f *fakeFetcher) gateAlerts() (started chan struct{}, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alertsGate = make(chan struct{})
	f.alertsStarted = make(chan struct{}, 8)
	gate := f.alertsGate
	return f.alertsStarted, func() { close(gate) }
}

func (f *fakeFetcher) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

func (f *fakeFetcher) ListDevices(context.Context, int, int) ([]iotapi.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]iotapi.Device(nil), f.devices...), nil
}

func (f *fakeFetcher) GetDeviceStats(context.Context) (iotapi.DeviceStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deviceStats, nil
}

func (f *fakeFetcher) UpdateDevice(context.Context, string, iotapi.DeviceUpdate) (*iotapi.Device, error) {
	return nil, nil
}

func (f *fakeFetcher) DeleteDevice(context.Context, string) error { return nil }

func (f *fakeFetcher) ListAlerts(ctx context.Context, _ iotapi.AlertQuery) ([]iotapi.Alert, error) {
	f.mu.Lock()
	gate, started := f.alertsGate, f.alertsStarted
	f.mu.Unlock()
	if gate != nil {
		if started != nil {
			started <- struct{}{}
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]iotapi.Alert(nil), f.alerts...), nil
}

func (f *fakeFetcher) GetAlertStats(context.Context) (iotapi.AlertStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alertStats, nil
}

func (f *fakeFetcher) ResolveAlert(context.Context, string) (*iotapi.Alert, error) {
	return nil, nil
}

func (f *fakeFetcher) DeleteAlert(context.Context, string) error { return nil }

func (f *fakeFetcher) ListSensorReadings(ctx context.Context, q iotapi.ReadingQuery) ([]iotapi.SensorReading, error) {
	if f.readings != nil {
		return f.readings(ctx, q)
	}
	return nil, nil
}

// mockFetcher records mutation calls.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) ListDevices(ctx context.Context, skip, limit int) ([]iotapi.Device, error) {
	args := m.Called(ctx, skip, limit)
	devices, _ := args.Get(0).([]iotapi.Device)
	return devices, args.Error(1)
}

func (m *mockFetcher) GetDeviceStats(ctx context.Context) (iotapi.DeviceStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(iotapi.DeviceStats), args.Error(1)
}

func (m *mockFetcher) UpdateDevice(ctx context.Context, id string, update iotapi.DeviceUpdate) (*iotapi.Device, error) {
	args := m.Called(ctx, id, update)
	device, _ := args.Get(0).(*iotapi.Device)
	return device, args.Error(1)
}

func (m *mockFetcher) DeleteDevice(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockFetcher) ListAlerts(ctx context.Context, query iotapi.AlertQuery) ([]iotapi.Alert, error) {
	args := m.Called(ctx, query)
	alerts, _ := args.Get(0).([]iotapi.Alert)
	return alerts, args.Error(1)
}

func (m *mockFetcher) GetAlertStats(ctx context.Context) (iotapi.AlertStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(iotapi.AlertStats), args.Error(1)
}

func (m *mockFetcher) ResolveAlert(ctx context.Context, id string) (*iotapi.Alert, error) {
	args := m.Called(ctx, id)
	alert, _ := args.Get(0).(*iotapi.Alert)
	return alert, args.Error(1)
}

func (m *mockFetcher) DeleteAlert(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockFetcher) ListSensorReadings(ctx context.Context, query iotapi.ReadingQuery) ([]iotapi.SensorReading, error) {
	args := m.Called(ctx, query)
	readings, _ := args.Get(0).([]iotapi.SensorReading)
	return readings, args.Error(1)
}
