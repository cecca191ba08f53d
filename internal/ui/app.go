package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/five82/iotdash/internal/iotapi"
	"github.com/five82/iotdash/internal/logtail"
	"github.com/five82/iotdash/internal/prefs"
	"github.com/five82/iotdash/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewDashboard View = iota
	ViewLogs
)

// Pane is the focused list on the dashboard.
type Pane int

const (
	PaneDevices Pane = iota
	PaneAlerts
)

// AlertFilter narrows the alert list locally.
type AlertFilter int

const (
	FilterAll AlertFilter = iota
	FilterUnresolved
	FilterUrgent // HIGH and CRITICAL
)

// Options configures the UI.
type Options struct {
	Context    context.Context
	Controller Controller
	Store      Snapshotter
	Log        *logrus.Entry
	PollTick   time.Duration
	ThemeName  string
	ChartStyle string
	PrefsPath  string
	LogPath    string
	APIURL     string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	ctrl      Controller
	store     Snapshotter
	log       *logrus.Entry
	prefsPath string
	logPath   string
	apiURL    string
	pollTick  time.Duration
	keys      keyMap

	// UI state
	theme       Theme
	chartStyle  string
	currentView View
	focusedPane Pane
	width       int
	height      int
	ready       bool
	spinner     spinner.Model
	pending     int    // mutations awaiting a server answer
	notice      string // transient UI-local message

	// Data state
	snapshot state.Snapshot

	// Dashboard state
	deviceRow   int
	alertRow    int
	alertFilter AlertFilter

	// Log state
	logViewport  viewport.Model
	logEntries   []logtail.Entry
	warningsOnly bool
	logErr       error

	// Overlays
	showHelp bool
	modal    Modal
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.Default().Theme
	}

	chartStyle := opts.ChartStyle
	if chartStyle != prefs.ChartBar {
		chartStyle = prefs.ChartLine
	}

	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}

	theme := GetTheme(themeName)
	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot))

	return Model{
		ctx:         ctx,
		ctrl:        opts.Controller,
		store:       opts.Store,
		log:         log,
		prefsPath:   opts.PrefsPath,
		logPath:     opts.LogPath,
		apiURL:      opts.APIURL,
		pollTick:    pollTick,
		keys:        DefaultKeyMap(),
		theme:       theme,
		chartStyle:  chartStyle,
		currentView: ViewDashboard,
		spinner:     sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.pollTick),
		m.spinner.Tick,
	}
	// Fetch snapshot immediately on start
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.initLogViewport()
		}
		m.ready = true
		m.resizeLogViewport()
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, nil

	case mutationDoneMsg:
		if m.pending > 0 {
			m.pending--
		}
		if msg.err != nil {
			m.log.WithError(msg.err).WithField("action", msg.action).Debug("mutation failed")
		}
		return m, fetchSnapshotCmd(m.store)

	case logLinesMsg:
		m.logErr = msg.err
		if msg.err == nil {
			m.logEntries = msg.entries
		}
		m.updateLogViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	// Show help overlay if active
	if m.showHelp {
		return m.renderHelp()
	}

	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	return m.renderMain()
}

// busy reports whether any request is outstanding.
func (m Model) busy() bool {
	return m.snapshot.Loading || m.pending > 0
}

func (m *Model) applySnapshot(snap state.Snapshot) {
	m.snapshot = snap
	if i := m.deviceIndex(snap.SelectedID); i >= 0 {
		m.deviceRow = i
	}
	m.deviceRow = clamp(m.deviceRow, 0, len(snap.Devices)-1)
	m.alertRow = clamp(m.alertRow, 0, len(m.visibleAlerts())-1)
}

func (m Model) deviceIndex(id string) int {
	if id == "" {
		return -1
	}
	for i, d := range m.snapshot.Devices {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// selectedDevice returns the device under the cursor.
func (m Model) selectedDevice() (iotapi.Device, bool) {
	if m.deviceRow < 0 || m.deviceRow >= len(m.snapshot.Devices) {
		return iotapi.Device{}, false
	}
	return m.snapshot.Devices[m.deviceRow], true
}

// selectedAlert returns the alert under the cursor in the filtered list.
func (m Model) selectedAlert() (iotapi.Alert, bool) {
	alerts := m.visibleAlerts()
	if m.alertRow < 0 || m.alertRow >= len(alerts) {
		return iotapi.Alert{}, false
	}
	return alerts[m.alertRow], true
}

// visibleAlerts applies the local alert filter.
func (m Model) visibleAlerts() []iotapi.Alert {
	if m.alertFilter == FilterAll {
		return m.snapshot.Alerts
	}
	out := make([]iotapi.Alert, 0, len(m.snapshot.Alerts))
	for _, a := range m.snapshot.Alerts {
		switch m.alertFilter {
		case FilterUnresolved:
			if !a.IsResolved {
				out = append(out, a)
			}
		case FilterUrgent:
			if a.Severity.Rank() >= iotapi.SeverityHigh.Rank() {
				out = append(out, a)
			}
		}
	}
	return out
}

// cycleFilter cycles through alert filter modes.
func (m *Model) cycleFilter() {
	switch m.alertFilter {
	case FilterAll:
		m.alertFilter = FilterUnresolved
	case FilterUnresolved:
		m.alertFilter = FilterUrgent
	default:
		m.alertFilter = FilterAll
	}
	m.alertRow = clamp(m.alertRow, 0, len(m.visibleAlerts())-1)
}

// filterLabel returns the display label for the current filter mode.
func (m Model) filterLabel() string {
	switch m.alertFilter {
	case FilterUnresolved:
		return "Unresolved"
	case FilterUrgent:
		return "High+"
	default:
		return "All"
	}
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs {
		cmds = append(cmds, readLogsCmd(m.logPath))
	}
	return m, tea.Batch(cmds...)
}

// savePrefs persists theme and chart style, surfacing failures as a notice.
func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, ChartStyle: m.chartStyle})
	if err != nil {
		m.log.WithError(err).Warn("save preferences failed")
		m.notice = "Could not save preferences"
		return
	}
	m.notice = ""
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type mutationDoneMsg struct {
	action string
	err    error
}

type logLinesMsg struct {
	entries []logtail.Entry
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store Snapshotter) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// selectDeviceCmd hands the selection to the controller and returns the
// resulting snapshot so the cursor and chart state stay in step.
func selectDeviceCmd(ctrl Controller, store Snapshotter, id string) tea.Cmd {
	return func() tea.Msg {
		ctrl.SelectDevice(id)
		if store == nil {
			return nil
		}
		return snapshotMsg(store.Snapshot())
	}
}

// mutationCmd runs fn with a bounded context derived from the UI context.
func mutationCmd(parent context.Context, action string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, MutationTimeout)
		defer cancel()
		return mutationDoneMsg{action: action, err: fn(ctx)}
	}
}

func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logLinesMsg{}
		}
		entries, err := logtail.Tail(path, LogBufferLimit)
		return logLinesMsg{entries: entries, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	if opts.Store == nil || opts.Controller == nil {
		return errors.New("ui requires a store and a controller")
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
