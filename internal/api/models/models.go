// Package models defines the API request and response shapes.
package models

import (
	"github.com/smazurov/framepipe/internal/pipeline"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2026-03-01 14:30" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"a1b2c3d4" doc:"Unique build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Pipeline metrics models
type MetricsResponse struct {
	Body pipeline.Metrics
}

// Scale level models
type ScaleLevelData struct {
	Level  int `json:"level" example:"2" doc:"Quality preset index"`
	Width  int `json:"width" example:"640" doc:"Preset width"`
	Height int `json:"height" example:"480" doc:"Preset height"`
}

type ScaleLevelsData struct {
	Levels  []ScaleLevelData `json:"levels" doc:"All quality presets, lowest to highest"`
	Current int              `json:"current" example:"2" doc:"Active preset index"`
	Forced  bool             `json:"forced" doc:"Whether the level is pinned by a caller"`
}

type ScaleLevelsResponse struct {
	Body ScaleLevelsData
}

type ScaleRequest struct {
	Body struct {
		Level int `json:"level" minimum:"-1" maximum:"4" example:"3" doc:"Preset index to pin; -1 releases the pin"`
	}
}

type ScaleResponse struct {
	Body ScaleLevelsData
}

// Safety models
type SafetyRequest struct {
	Body struct {
		Enabled bool `json:"enabled" example:"true" doc:"Whether the safety monitor runs its checks"`
	}
}

type SafetyData struct {
	Enabled                 bool `json:"enabled" doc:"Whether safety monitoring is enabled"`
	EmergencyFallbackActive bool `json:"emergency_fallback_active" doc:"Latched degraded-operation mode"`
	ThermalThrottlingActive bool `json:"thermal_throttling_active" doc:"Latched thermal throttle"`
}

type SafetyResponse struct {
	Body SafetyData
}

type ResetErrorsData struct {
	Status  string `json:"status" example:"ok" doc:"Operation result"`
	Message string `json:"message" example:"error state cleared" doc:"Result message"`
}

type ResetErrorsResponse struct {
	Body ResetErrorsData
}

// Config models
type ConfigResponse struct {
	Body ConfigData
}

type ConfigData struct {
	TargetFPS              int     `json:"target_fps" example:"30" doc:"Target frame rate"`
	MaxQueueSize           int     `json:"max_queue_size" example:"10" doc:"Queue capacity"`
	EnableAdaptiveQuality  bool    `json:"enable_adaptive_quality" doc:"Whether adaptation moves the scale level"`
	EnableSafetyMonitoring bool    `json:"enable_safety_monitoring" doc:"Whether the safety monitor runs"`
	ThermalLimitCelsius    float64 `json:"thermal_limit_celsius" example:"85" doc:"Thermal trip point"`
	MaxConsecutiveErrors   int     `json:"max_consecutive_errors" example:"10" doc:"Error trip point"`
	BatchSize              int     `json:"batch_size" example:"4" doc:"Default retrieval batch size"`
}

type ConfigUpdateRequest struct {
	Body ConfigData
}

// Memory models
type MemoryData struct {
	UsageMB  float64 `json:"usage_mb" example:"12.5" doc:"Advisory frame memory estimate"`
	LimitMB  int     `json:"limit_mb" example:"512" doc:"Configured ceiling, 0 means unlimited"`
	Pressure bool    `json:"pressure" doc:"Estimate exceeds the ceiling"`
}

type MemoryResponse struct {
	Body MemoryData
}

// Log models
type LogEntryData struct {
	Timestamp  string         `json:"timestamp" example:"2026-03-01T10:30:00Z" doc:"Entry timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"pipeline" doc:"Originating module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

type LogsData struct {
	Entries []LogEntryData `json:"entries" doc:"Recent log entries, oldest first"`
	Count   int            `json:"count" example:"128" doc:"Number of entries returned"`
}

type LogsResponse struct {
	Body LogsData
}
