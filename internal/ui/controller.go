package ui

import (
	"context"

	"github.com/five82/iotdash/internal/state"
)

// Controller is the set of intents the TUI can send to the sync layer.
// Mutations block until the server answers; the rest return immediately.
type Controller interface {
	Refresh()
	SelectDevice(id string)
	DeleteDevice(ctx context.Context, id string) error
	SetDeviceActive(ctx context.Context, id string, active bool) error
	DeleteAlert(ctx context.Context, id string) error
	ResolveAlert(ctx context.Context, id string) error
	DismissError()
}

// Snapshotter provides read-only views of the dashboard state.
type Snapshotter interface {
	Snapshot() state.Snapshot
}
