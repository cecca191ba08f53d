package app

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/five82/iotdash/internal/config"
	"github.com/five82/iotdash/internal/iotapi"
	"github.com/five82/iotdash/internal/logging"
	"github.com/five82/iotdash/internal/prefs"
	"github.com/five82/iotdash/internal/state"
	"github.com/five82/iotdash/internal/ui"
)

const healthTimeout = 3 * time.Second

// Options configure the dashboard application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/iotdash/prefs.toml
	PollEvery  int    // seconds; zero uses the configured interval
}

// runtime holds everything Run wires together before the UI starts.
type runtime struct {
	cfg       config.Config
	prefs     prefs.Prefs
	prefsPath string
	log       *logging.Logrus
	logFile   io.Closer
	client    *iotapi.Client
	store     *state.Store
	syncer    *Syncer
}

// Run boots the dashboard TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	rt, err := newRuntime(opts)
	if err != nil {
		return err
	}
	defer rt.close()

	appLog := rt.log.Get("app")
	appLog.WithFields(logrus.Fields{
		"api_url":  rt.client.BaseURL(),
		"interval": rt.cfg.PollInterval.String(),
	}).Info("starting dashboard")

	rt.preflight(ctx)

	if err := rt.syncer.Start(ctx); err != nil {
		return errors.Wrap(err, "start syncer")
	}
	defer rt.syncer.Stop()

	err = ui.Run(ui.Options{
		Context:    ctx,
		Controller: rt.syncer,
		Store:      rt.store,
		Log:        rt.log.Get("ui"),
		ThemeName:  rt.prefs.Theme,
		ChartStyle: rt.prefs.ChartStyle,
		PrefsPath:  rt.prefsPath,
		LogPath:    rt.cfg.LogFile,
		APIURL:     rt.client.BaseURL(),
	})
	appLog.Info("dashboard stopped")
	return err
}

// newRuntime loads configuration and preferences and builds the logger,
// API client, store and syncer. Nothing is started.
func newRuntime(opts Options) (*runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}

	if opts.PrefsPath == "" {
		opts.PrefsPath = prefs.DefaultPath()
	}
	userPrefs, _ := prefs.Load(opts.PrefsPath)

	rt := &runtime{cfg: cfg, prefs: userPrefs, prefsPath: opts.PrefsPath}

	var out io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		out = f
		rt.logFile = f
	}
	rt.log = logging.NewLogrus(cfg.LogLevel, out)

	rt.client, err = iotapi.NewClient(cfg.APIURL,
		iotapi.WithTimeout(cfg.RequestTimeout),
		iotapi.WithRetries(cfg.MaxRetries),
		iotapi.WithLogger(rt.log.Get("api")),
	)
	if err != nil {
		rt.close()
		return nil, errors.Wrap(err, "init api client")
	}

	rt.store = &state.Store{}
	rt.syncer = NewSyncer(rt.client, rt.store, rt.log.Get("sync"), SyncOptions{
		Interval:     cfg.PollInterval,
		ChartWindow:  cfg.ChartWindow,
		DeviceLimit:  cfg.DeviceLimit,
		AlertLimit:   cfg.AlertLimit,
		ReadingLimit: cfg.ReadingLimit,
	})
	return rt, nil
}

// preflight checks /health once. A failure is only logged: the syncer keeps
// retrying and the UI shows the offline state.
func (rt *runtime) preflight(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	log := rt.log.Get("app")
	health, err := rt.client.Health(ctx)
	if err != nil {
		log.WithError(err).Warn("api health check failed")
		return false
	}
	log.WithField("status", health.Status).Debug("api health check ok")
	return true
}

func (rt *runtime) close() {
	if rt.logFile != nil {
		_ = rt.logFile.Close()
		rt.logFile = nil
	}
}
