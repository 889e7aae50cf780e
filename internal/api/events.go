package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/framepipe/internal/events"
)

// registerEventRoutes registers the pipeline event stream.
func (s *Server) registerEventRoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "pipeline-events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events/stream",
		Summary:     "Pipeline Event Stream",
		Description: "Real-time pipeline events via Server-Sent Events: drops, errors, scale changes, ramp completion, fallback transitions, and config updates.",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"frame_dropped":       events.FrameDroppedEvent{},
		"processing_error":    events.ProcessingErrorEvent{},
		"scale_level_changed": events.ScaleLevelChangedEvent{},
		"ramp_completed":      events.RampCompletedEvent{},
		"emergency_fallback":  events.EmergencyFallbackEvent{},
		"config_updated":      events.ConfigUpdatedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		if s.eventBus == nil {
			return
		}

		// One channel per connection; slow consumers drop events rather
		// than blocking the dispatcher.
		eventCh := make(chan any, 100)

		unsubs := []func(){
			events.SubscribeToChannel[events.FrameDroppedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ProcessingErrorEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ScaleLevelChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.RampCompletedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.EmergencyFallbackEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ConfigUpdatedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubs {
				unsub()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
