package app

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/five82/iotdash/internal/iotapi"
	"github.com/five82/iotdash/internal/reconcile"
	"github.com/five82/iotdash/internal/state"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultPageLimit    = 100
)

var (
	ErrSyncerStarted = errors.New("syncer already started")
	ErrSyncerStopped = errors.New("syncer stopped")
)

// SyncOptions tune a Syncer. Zero values use defaults.
type SyncOptions struct {
	Interval     time.Duration
	ChartWindow  int
	DeviceLimit  int
	AlertLimit   int
	ReadingLimit int
	// Location renders chart labels; nil means time.Local.
	Location *time.Location
}

func (o SyncOptions) withDefaults() SyncOptions {
	if o.Interval <= 0 {
		o.Interval = defaultPollInterval
	}
	if o.ChartWindow <= 0 {
		o.ChartWindow = reconcile.DefaultWindow
	}
	if o.DeviceLimit <= 0 {
		o.DeviceLimit = defaultPageLimit
	}
	if o.AlertLimit <= 0 {
		o.AlertLimit = defaultPageLimit
	}
	if o.ReadingLimit <= 0 {
		o.ReadingLimit = defaultPageLimit
	}
	return o
}

// Syncer keeps the store in step with the API: periodic full refreshes,
// chart fetches for the selected device, and server-confirmed mutations.
type Syncer struct {
	client iotapi.Fetcher
	store  *state.Store
	log    *logrus.Entry
	opts   SyncOptions
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	stopped bool
	unwatch func() bool
	wg      sync.WaitGroup
}

// NewSyncer wires a Syncer to client and store. A nil log discards output.
func NewSyncer(client iotapi.Fetcher, store *state.Store, log *logrus.Entry, opts SyncOptions) *Syncer {
	if log == nil {
		log = discardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Syncer{
		client: client,
		store:  store,
		log:    log,
		opts:   opts.withDefaults(),
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start performs an immediate full refresh in the background and repeats it
// every interval until Stop is called or ctx is cancelled. It returns
// immediately.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSyncerStopped
	}
	if s.started {
		return ErrSyncerStarted
	}
	s.started = true
	s.unwatch = context.AfterFunc(ctx, s.cancel)

	s.wg.Add(1)
	go s.loop()
	return nil
}

// Stop cancels the timer and in-flight requests, detaches the store so no
// late result is applied, and waits for background work to finish. A stopped
// Syncer cannot be restarted.
func (s *Syncer) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	unwatch := s.unwatch
	s.mu.Unlock()

	s.store.Detach()
	s.cancel()
	if unwatch != nil {
		unwatch()
	}
	s.wg.Wait()
	s.log.Debug("syncer stopped")
}

// Refresh triggers an asynchronous full refresh.
func (s *Syncer) Refresh() {
	s.goAsync(s.refresh)
}

// SelectDevice makes id the selected device and fetches its chart in the
// background. Unknown ids and reselecting the current device are no-ops.
func (s *Syncer) SelectDevice(id string) {
	if !s.store.Select(id) {
		return
	}
	s.goAsync(func(ctx context.Context) {
		s.refreshChart(ctx, id)
	})
}

// DismissError clears the user-visible error banner.
func (s *Syncer) DismissError() {
	s.store.ClearError()
}

func (s *Syncer) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		s.refresh(s.ctx)
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// goAsync runs fn on a tracked goroutine unless the Syncer has stopped.
func (s *Syncer) goAsync(fn func(ctx context.Context)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
	return true
}

func (s *Syncer) refresh(ctx context.Context) {
	ticket := s.store.BeginRefresh()
	data, err := s.fetchAll(ctx)

	if !s.store.CommitRefresh(ticket, data, err) {
		s.log.Debug("discarded stale refresh")
		return
	}
	if err != nil {
		s.log.WithError(err).Warn("refresh failed")
		return
	}
	s.log.WithFields(logrus.Fields{
		"devices": len(data.Devices),
		"alerts":  len(data.Alerts),
	}).Debug("refresh applied")

	if id, _ := s.store.EnsureSelection(); id != "" {
		s.refreshChart(ctx, id)
	}
}

// fetchAll loads lists and counters concurrently; the first failure cancels
// the rest and is returned.
func (s *Syncer) fetchAll(ctx context.Context) (state.RefreshData, error) {
	var data state.RefreshData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		devices, err := s.client.ListDevices(gctx, 0, s.opts.DeviceLimit)
		if err != nil {
			return errors.Wrap(err, "list devices")
		}
		data.Devices = devices
		return nil
	})
	g.Go(func() error {
		alerts, err := s.client.ListAlerts(gctx, iotapi.AlertQuery{Limit: s.opts.AlertLimit})
		if err != nil {
			return errors.Wrap(err, "list alerts")
		}
		data.Alerts = alerts
		return nil
	})
	g.Go(func() error {
		stats, err := s.client.GetDeviceStats(gctx)
		if err != nil {
			return errors.Wrap(err, "device stats")
		}
		data.DeviceStats = stats
		return nil
	})
	g.Go(func() error {
		stats, err := s.client.GetAlertStats(gctx)
		if err != nil {
			return errors.Wrap(err, "alert stats")
		}
		data.AlertStats = stats
		return nil
	})

	if err := g.Wait(); err != nil {
		return state.RefreshData{}, errors.Wrap(err, "load dashboard data")
	}
	return data, nil
}

// refreshChart fetches every tracked sensor series for deviceID and commits
// the merged window if it is still wanted. Failures stay local to the chart.
func (s *Syncer) refreshChart(ctx context.Context, deviceID string) {
	ticket := s.store.BeginChart(deviceID)
	series := make([]reconcile.Series, len(reconcile.Tracked))

	var g errgroup.Group
	for i, sensor := range reconcile.Tracked {
		g.Go(func() error {
			readings, err := s.client.ListSensorReadings(ctx, iotapi.ReadingQuery{
				DeviceID:   deviceID,
				SensorType: string(sensor),
				Limit:      s.opts.ReadingLimit,
			})
			series[i] = toSeries(sensor, readings, err)
			return nil
		})
	}
	_ = g.Wait()

	result := reconcile.Merge(series, reconcile.Options{
		Window:   s.opts.ChartWindow,
		Location: s.opts.Location,
	})
	log := s.log.WithField("device_id", deviceID)
	if result.Partial() {
		log.WithField("failed", result.Failed).Debug("chart series failed")
	}
	if !s.store.CommitChart(ticket, result) {
		log.Debug("discarded stale chart")
	}
}

func toSeries(sensor reconcile.Sensor, readings []iotapi.SensorReading, err error) reconcile.Series {
	if err != nil {
		return reconcile.Series{Sensor: sensor, Err: err}
	}
	samples := make([]reconcile.Sample, 0, len(readings))
	for _, r := range readings {
		at := r.ParsedTimestamp()
		if at.IsZero() {
			continue
		}
		samples = append(samples, reconcile.Sample{At: at, Value: r.Value})
	}
	return reconcile.Series{Sensor: sensor, Samples: samples}
}
