package pipeline

// Metrics is a point-in-time snapshot of pipeline performance and health.
// Scalar counters come from atomics; the snapshot itself is a plain value
// safe to hand to any caller.
type Metrics struct {
	// Performance
	AvgProcessingMs float64 `json:"avg_processing_ms" doc:"Rolling average processing time in milliseconds"`
	CurrentFPS      float64 `json:"current_fps" doc:"FPS estimate derived from the rolling average"`
	TargetFPS       float64 `json:"target_fps" doc:"Configured target frame rate"`
	Efficiency      float64 `json:"efficiency" doc:"CurrentFPS over TargetFPS as a percentage, capped at 100"`

	// Processing statistics
	FramesProcessed int64 `json:"frames_processed" doc:"Frames successfully processed"`
	FramesDropped   int64 `json:"frames_dropped" doc:"Frames rejected or discarded"`
	FramesInQueue   int   `json:"frames_in_queue" doc:"Frames currently waiting in the input queue"`

	// GPU
	GPUAvailable   bool    `json:"gpu_available" doc:"Whether a GPU device answered the probe"`
	GPUUtilization float64 `json:"gpu_utilization" doc:"GPU utilization percentage, 0 when unavailable"`
	GPUMemoryMB    float64 `json:"gpu_memory_mb" doc:"GPU memory in use, MB"`
	GPUTemperature float64 `json:"gpu_temperature" doc:"GPU temperature in Celsius, 0 when unavailable"`

	// CPU
	CPUMemoryMB float64 `json:"cpu_memory_mb" doc:"Process heap in use, MB"`

	// Quality
	CurrentScaleLevel int     `json:"current_scale_level" doc:"Active quality preset index"`
	AverageQuality    float64 `json:"average_quality" doc:"Smoothed quality score of recent output, 0 to 1"`

	// Ramp
	RampComplete  bool `json:"ramp_complete" doc:"Whether the startup ramp reached target resolution"`
	WorkingWidth  int  `json:"working_width" doc:"Current working width"`
	WorkingHeight int  `json:"working_height" doc:"Current working height"`
	SkipFactor    int  `json:"skip_factor" doc:"Warm-up frame-skip factor"`

	// Safety
	ErrorCount              int64 `json:"error_count" doc:"Total processing errors"`
	ConsecutiveErrors       int64 `json:"consecutive_errors" doc:"Errors since the last success"`
	EmergencyFallbackActive bool  `json:"emergency_fallback_active" doc:"Latched degraded-operation mode"`
	ThermalThrottlingActive bool  `json:"thermal_throttling_active" doc:"Latched thermal throttle"`

	// Memory
	MemoryUsageMB  float64 `json:"memory_usage_mb" doc:"Advisory estimate of frame memory held by the pipeline"`
	MemoryPressure bool    `json:"memory_pressure" doc:"Estimate exceeds the configured ceiling"`

	// Identity
	InstanceID string `json:"instance_id" doc:"Processor instance identifier"`
}
