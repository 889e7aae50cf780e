package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/framepipe/internal/events"
	"github.com/smazurov/framepipe/internal/pipeline"
)

// MetricsSource is the slice of the pipeline the poller reads.
type MetricsSource interface {
	InstanceID() string
	Metrics() pipeline.Metrics
}

// Poller periodically publishes pipeline snapshots to Prometheus and counts
// pipeline events as they arrive on the bus.
type Poller struct {
	logger   *slog.Logger
	source   MetricsSource
	bus      *events.Bus
	interval time.Duration

	cancel   context.CancelFunc
	unsubs   []func()
	stopOnce sync.Once
}

// NewPoller creates a poller for the given source. A nil bus disables event
// counting.
func NewPoller(source MetricsSource, bus *events.Bus, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	return &Poller{
		logger:   slog.With("component", "telemetry_poller", "instance", source.InstanceID()),
		source:   source,
		bus:      bus,
		interval: interval,
	}
}

// Start begins polling and subscribes to pipeline events.
func (p *Poller) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	if p.bus != nil {
		id := p.source.InstanceID()
		p.unsubs = append(p.unsubs,
			p.bus.Subscribe(func(e events.FrameDroppedEvent) {
				CountEvent(id, "frame_dropped")
			}),
			p.bus.Subscribe(func(e events.ProcessingErrorEvent) {
				CountEvent(id, "processing_error")
			}),
			p.bus.Subscribe(func(e events.ScaleLevelChangedEvent) {
				CountEvent(id, "scale_level_changed")
			}),
			p.bus.Subscribe(func(e events.RampCompletedEvent) {
				CountEvent(id, "ramp_completed")
			}),
			p.bus.Subscribe(func(e events.EmergencyFallbackEvent) {
				CountEvent(id, "emergency_fallback")
			}),
		)
	}

	go p.run(ctx)
	p.logger.Debug("Telemetry poller started", "interval", p.interval)
	return nil
}

// Stop halts polling and removes the instance's metrics.
func (p *Poller) Stop() error {
	p.stopOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
		for _, unsub := range p.unsubs {
			unsub()
		}
		Delete(p.source.InstanceID())
	})
	return nil
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			Record(p.source.Metrics())
		}
	}
}
