// Package device simulates syncing a registered device. Real hardware
// integration does not exist yet; the flow mirrors what the eventual
// device agent will report.
package device

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/dmorneau/carebell/internal/model"
	"github.com/dmorneau/carebell/internal/store"
	"github.com/dmorneau/carebell/internal/websocket"
)

const syncDelay = 2500 * time.Millisecond

// Syncer drives the syncing -> connected status transition for devices
// and announces each step on the hub.
type Syncer struct {
	store  *store.DeviceStore
	hub    *websocket.Hub
	logger *slog.Logger

	// Overridable in tests.
	delay   time.Duration
	now     func() time.Time
	battery func() int
}

func NewSyncer(deviceStore *store.DeviceStore, hub *websocket.Hub, logger *slog.Logger) *Syncer {
	return &Syncer{
		store:   deviceStore,
		hub:     hub,
		logger:  logger,
		delay:   syncDelay,
		now:     time.Now,
		battery: func() int { return rand.Intn(101) },
	}
}

// Start flips the device to syncing and kicks off the background
// completion. It returns the device in its syncing state.
func (s *Syncer) Start(d *model.Device) (*model.Device, error) {
	prior := d.Status
	if err := s.store.SetStatus(d.ID, model.DeviceSyncing); err != nil {
		return nil, err
	}
	s.hub.Broadcast(d.UserID, websocket.NewMessage("device", "updated", d.ID, map[string]any{"status": string(model.DeviceSyncing)}))

	go s.complete(d, prior)

	return s.store.GetByID(d.ID)
}

// complete waits out the simulated handshake, then records a successful
// sync. A store failure puts the device back in its prior status so it
// never sticks in syncing.
func (s *Syncer) complete(d *model.Device, prior model.DeviceStatus) {
	time.Sleep(s.delay)

	if err := s.store.SetSynced(d.ID, s.now().UTC(), s.battery()); err != nil {
		s.logger.Error("device sync failed", "device_id", d.ID, "error", err)
		if err := s.store.SetStatus(d.ID, prior); err != nil {
			s.logger.Error("device status revert failed", "device_id", d.ID, "error", err)
		}
		s.hub.Broadcast(d.UserID, websocket.NewMessage("device", "updated", d.ID, map[string]any{"status": string(prior)}))
		return
	}

	s.hub.Broadcast(d.UserID, websocket.NewMessage("device", "updated", d.ID, map[string]any{"status": string(model.DeviceConnected)}))
}
