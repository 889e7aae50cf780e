package events

// Event type constants for kelindar/event.
const (
	TypeFrameDropped uint32 = iota + 1
	TypeProcessingError
	TypeScaleLevelChanged
	TypeRampCompleted
	TypeEmergencyFallback
	TypeConfigUpdated
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// FrameDroppedEvent is published when a frame is rejected or discarded.
type FrameDroppedEvent struct {
	FrameID   int64  `json:"frame_id" doc:"Sequence ID of the dropped frame"`
	Reason    string `json:"reason" example:"queue_full" doc:"Why the frame was dropped"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for FrameDroppedEvent.
func (e FrameDroppedEvent) Type() uint32 { return TypeFrameDropped }

// ProcessingErrorEvent is published when the worker fails to process a frame.
type ProcessingErrorEvent struct {
	FrameID     int64  `json:"frame_id" doc:"Sequence ID of the failed frame"`
	Error       string `json:"error" doc:"Detailed error description"`
	Consecutive int    `json:"consecutive" doc:"Consecutive error count after this failure"`
	Timestamp   string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ProcessingErrorEvent.
func (e ProcessingErrorEvent) Type() uint32 { return TypeProcessingError }

// ScaleLevelChangedEvent is published when the adaptation loop moves the scale level.
type ScaleLevelChangedEvent struct {
	From      int     `json:"from" example:"2" doc:"Previous scale level"`
	To        int     `json:"to" example:"3" doc:"New scale level"`
	FPS       float64 `json:"fps" example:"38.2" doc:"FPS estimate that triggered the change"`
	Forced    bool    `json:"forced" doc:"Whether the level was forced by a caller"`
	Timestamp string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ScaleLevelChangedEvent.
func (e ScaleLevelChangedEvent) Type() uint32 { return TypeScaleLevelChanged }

// RampCompletedEvent is published when the startup ramp reaches target resolution.
type RampCompletedEvent struct {
	Width           int    `json:"width" example:"640" doc:"Final working width"`
	Height          int    `json:"height" example:"480" doc:"Final working height"`
	FramesProcessed int    `json:"frames_processed" doc:"Frames completed during ramp"`
	Timestamp       string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RampCompletedEvent.
func (e RampCompletedEvent) Type() uint32 { return TypeRampCompleted }

// EmergencyFallbackEvent is published when the safety monitor latches or is reset.
type EmergencyFallbackEvent struct {
	Active            bool    `json:"active" doc:"Whether emergency fallback is now active"`
	Reason            string  `json:"reason" example:"consecutive_errors" doc:"What tripped the monitor"`
	ConsecutiveErrors int     `json:"consecutive_errors" doc:"Consecutive error count at trip time"`
	Temperature       float64 `json:"temperature" doc:"Thermal reading at trip time, Celsius"`
	Timestamp         string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for EmergencyFallbackEvent.
func (e EmergencyFallbackEvent) Type() uint32 { return TypeEmergencyFallback }

// ConfigUpdatedEvent is published after a successful runtime configuration update.
type ConfigUpdatedEvent struct {
	Source    string `json:"source" example:"api" doc:"Where the update came from: api, watcher"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ConfigUpdatedEvent.
func (e ConfigUpdatedEvent) Type() uint32 { return TypeConfigUpdated }
