package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/five82/iotdash/internal/iotapi"
)

func TestGetTheme_Fallback(t *testing.T) {
	assert.Equal(t, "Nightfox", GetTheme("does-not-exist").Name)
	assert.Equal(t, "Slate", GetTheme("Slate").Name)
}

func TestNextTheme_Cycles(t *testing.T) {
	names := ThemeNames()
	current := names[0]
	for i := 1; i <= len(names); i++ {
		current = NextTheme(current)
		assert.Equal(t, names[i%len(names)], current)
	}
	assert.Equal(t, names[0], NextTheme("unknown"))
}

func TestThemes_DefineEverySeverity(t *testing.T) {
	severities := []iotapi.Severity{
		iotapi.SeverityLow, iotapi.SeverityMedium, iotapi.SeverityHigh, iotapi.SeverityCritical,
	}
	for _, name := range ThemeNames() {
		theme := GetTheme(name)
		for _, sev := range severities {
			assert.NotEmpty(t, theme.SeverityColors[string(sev)], "%s/%s", name, sev)
		}
		assert.NotEmpty(t, theme.StatusColors["active"], name)
		assert.NotEmpty(t, theme.StatusColors["inactive"], name)
		assert.NotEmpty(t, theme.Temperature, name)
		assert.NotEmpty(t, theme.Humidity, name)
	}
}

func TestSeverityColor(t *testing.T) {
	theme := GetTheme("Nightfox")
	assert.Equal(t, theme.SeverityColors["CRITICAL"], theme.SeverityColor(iotapi.SeverityCritical))
	assert.Equal(t, theme.SeverityColors["HIGH"], theme.SeverityColor(" high "))
	assert.Equal(t, theme.Muted, theme.SeverityColor("BOGUS"))
}
