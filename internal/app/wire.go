package app

import (
	"go.uber.org/zap"

	"keeperbridge/internal/domain"
	"keeperbridge/internal/metrics"
	"keeperbridge/internal/relay"
	"keeperbridge/internal/sink"
	channelsvc "keeperbridge/internal/services/channel"
	devicesvc "keeperbridge/internal/services/device"
	"keeperbridge/internal/store"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Channel  *channelsvc.Service
	Devices  domain.DeviceService
	Profiles domain.ProfileStore
	Pairing  domain.PairingStore
	Metrics  *metrics.Metrics
	// Inbox buffers inbound messages between the channel and the output
	// sink; messages that do not fit are dropped and counted.
	Inbox *sink.Queue
}

// NewWire constructs the dependency graph from cfg. Inbound channel messages
// land in Inbox.
func NewWire(cfg Config, log *zap.Logger) *Wire {
	m := metrics.New()
	inbox := sink.NewQueue(cfg.Relay.InboundQueue, m.SinkDropped)

	// File-based stores
	profiles := store.NewProfileFileStore(cfg.Home)
	pairing := store.NewPairingFileStore()

	// Relay transport
	dialer := relay.NewDialer(relay.Config{
		URL:       cfg.Relay.URL,
		SendQueue: cfg.Relay.SendQueue,
		Logger:    log,
	})

	// High-level services
	ch := channelsvc.New(dialer, channelsvc.Options{
		Logger:           log,
		Metrics:          m,
		Sink:             inbox,
		ConnectTimeout:   cfg.Relay.ConnectTimeout,
		Reconnect:        cfg.Relay.Reconnect,
		ReconnectBackoff: cfg.Relay.ReconnectBackoff,
	})
	devices := devicesvc.New(&devicesvc.BinaryExecutor{
		Binary:    cfg.Device.Binary,
		Emulators: cfg.Device.Emulators,
		Logger:    log,
	}, log)

	return &Wire{
		Channel:  ch,
		Devices:  devices,
		Profiles: profiles,
		Pairing:  pairing,
		Metrics:  m,
		Inbox:    inbox,
	}
}
