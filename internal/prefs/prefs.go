// Package prefs persists the dashboard's UI preferences (theme and chart
// style) in ~/.config/iotdash/prefs.toml.
package prefs

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Chart styles.
const (
	ChartLine = "line"
	ChartBar  = "bar"
)

// Prefs holds user preferences for iotdash.
type Prefs struct {
	Theme      string `toml:"theme"`
	ChartStyle string `toml:"chart_style"`
}

const (
	defaultPrefsPath = "~/.config/iotdash/prefs.toml"
	defaultTheme     = "Nightfox"
)

// Default returns the built-in preferences.
func Default() Prefs {
	return Prefs{Theme: defaultTheme, ChartStyle: ChartLine}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// NextChartStyle toggles between line and bar.
func NextChartStyle(style string) string {
	if normalizeChartStyle(style) == ChartBar {
		return ChartLine
	}
	return ChartBar
}

// Load reads preferences from path. A missing, unreadable or malformed file
// yields defaults, not an error.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default(), nil
	}
	raw, err := os.ReadFile(resolved)
	if err != nil {
		return Default(), nil
	}

	p := Default()
	if err := toml.Unmarshal(raw, &p); err != nil {
		return Default(), nil
	}
	return p.normalize(), nil
}

// Save writes preferences to path, creating parent directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return errors.Wrap(err, "resolve prefs path")
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return errors.Wrap(err, "create prefs dir")
	}

	raw, err := toml.Marshal(p.normalize())
	if err != nil {
		return errors.Wrap(err, "marshal prefs")
	}
	return errors.Wrap(os.WriteFile(resolved, raw, 0o644), "write prefs")
}

// normalize fills a blank theme and maps unknown chart styles to line.
func (p Prefs) normalize() Prefs {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.ChartStyle = normalizeChartStyle(p.ChartStyle)
	return p
}

func normalizeChartStyle(style string) string {
	if strings.EqualFold(strings.TrimSpace(style), ChartBar) {
		return ChartBar
	}
	return ChartLine
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is empty")
	}
	if rest, ok := strings.CutPrefix(trimmed, "~"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "resolve home dir")
		}
		trimmed = filepath.Join(home, rest)
	}
	return filepath.Abs(trimmed)
}
