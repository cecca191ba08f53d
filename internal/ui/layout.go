package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutStackedWidth is the threshold below which panes stack vertically.
	LayoutStackedWidth = 80
)

// Log display limits.
const (
	// LogBufferLimit is the maximum number of log lines read from the log file.
	LogBufferLimit = 2000
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second

	// MutationTimeout bounds a single mutation request issued from the UI.
	MutationTimeout = 15 * time.Second
)
