package app

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/five82/iotdash/internal/iotapi"
	"github.com/five82/iotdash/internal/logging"
	"github.com/five82/iotdash/internal/state"
)

// Mutations are sent to the server first; local state changes only after the
// server confirms. On failure the lists and counters are left untouched and a
// user-visible message is recorded.

// DeleteDevice removes a device and reselects if it was selected.
func (s *Syncer) DeleteDevice(ctx context.Context, id string) error {
	ctx, done := s.scope(ctx)
	defer done()

	if err := s.client.DeleteDevice(ctx, id); err != nil {
		return s.fail(err, state.DeleteDeviceFailedMessage, logrus.Fields{"device_id": id})
	}
	s.store.ApplyDeviceDeleted(id)
	s.log.WithField("device_id", id).Info("device deleted")
	s.reselect()
	return nil
}

// SetDeviceActive toggles a device's active flag.
func (s *Syncer) SetDeviceActive(ctx context.Context, id string, active bool) error {
	ctx, done := s.scope(ctx)
	defer done()

	updated, err := s.client.UpdateDevice(ctx, id, iotapi.DeviceUpdate{IsActive: &active})
	if err != nil {
		return s.fail(err, state.UpdateDeviceFailedMessage, logrus.Fields{"device_id": id})
	}

	var device iotapi.Device
	if updated != nil && updated.ID != "" {
		device = *updated
	} else {
		local, ok := s.findDevice(id)
		if !ok {
			return nil
		}
		local.IsActive = active
		device = local
	}
	s.store.ApplyDeviceUpdated(device)
	s.log.WithFields(logrus.Fields{"device_id": id, "active": device.IsActive}).Info("device updated")
	return nil
}

// DeleteAlert removes an alert.
func (s *Syncer) DeleteAlert(ctx context.Context, id string) error {
	ctx, done := s.scope(ctx)
	defer done()

	if err := s.client.DeleteAlert(ctx, id); err != nil {
		return s.fail(err, state.DeleteAlertFailedMessage, logrus.Fields{"alert_id": id})
	}
	s.store.ApplyAlertDeleted(id)
	s.log.WithField("alert_id", id).Info("alert deleted")
	return nil
}

// ResolveAlert marks an alert resolved, preferring the server's timestamp.
func (s *Syncer) ResolveAlert(ctx context.Context, id string) error {
	ctx, done := s.scope(ctx)
	defer done()

	resolved, err := s.client.ResolveAlert(ctx, id)
	if err != nil {
		return s.fail(err, state.ResolveAlertFailedMessage, logrus.Fields{"alert_id": id})
	}

	at := s.now()
	if resolved != nil {
		if ts := resolved.ParsedResolvedAt(); !ts.IsZero() {
			at = ts
		}
	}
	s.store.ApplyAlertResolved(id, at)
	s.log.WithField("alert_id", id).Info("alert resolved")
	return nil
}

// scope ties a caller context to the Syncer's lifetime so Stop cancels
// in-flight mutations.
func (s *Syncer) scope(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	unwatch := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		unwatch()
		cancel()
	}
}

func (s *Syncer) fail(err error, message string, fields logrus.Fields) error {
	s.log.WithFields(fields).WithError(err).Warn(message)
	s.store.RecordFailure(message, err)
	return errors.Wrap(err, message)
}

func (s *Syncer) reselect() {
	id, changed := s.store.EnsureSelection()
	if !changed || id == "" {
		return
	}
	s.goAsync(func(ctx context.Context) {
		s.refreshChart(ctx, id)
	})
}

func (s *Syncer) findDevice(id string) (iotapi.Device, bool) {
	for _, d := range s.store.Snapshot().Devices {
		if d.ID == id {
			return d, true
		}
	}
	return iotapi.Device{}, false
}

func discardLogger() *logrus.Entry {
	return logging.Discard()
}
