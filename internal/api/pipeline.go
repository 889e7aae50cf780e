package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/framepipe/internal/api/models"
	"github.com/smazurov/framepipe/internal/pipeline"
)

// registerPipelineRoutes registers the pipeline control endpoints.
func (s *Server) registerPipelineRoutes() {
	// Metrics snapshot
	huma.Register(s.api, huma.Operation{
		OperationID: "get-pipeline-metrics",
		Method:      http.MethodGet,
		Path:        "/api/pipeline/metrics",
		Summary:     "Pipeline Metrics",
		Description: "Get a point-in-time snapshot of pipeline performance and health",
		Tags:        []string{"pipeline"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.MetricsResponse, error) {
		return &models.MetricsResponse{Body: s.proc.Metrics()}, nil
	})

	// Quality presets
	huma.Register(s.api, huma.Operation{
		OperationID: "get-scale-levels",
		Method:      http.MethodGet,
		Path:        "/api/pipeline/levels",
		Summary:     "Scale Levels",
		Description: "List the quality presets and the active level",
		Tags:        []string{"pipeline"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.ScaleLevelsResponse, error) {
		return &models.ScaleLevelsResponse{Body: s.scaleLevelsData()}, nil
	})

	// Pin or release the scale level
	huma.Register(s.api, huma.Operation{
		OperationID: "set-scale-level",
		Method:      http.MethodPost,
		Path:        "/api/pipeline/scale",
		Summary:     "Set Scale Level",
		Description: "Pin the quality preset, overriding adaptation. A level of -1 releases the pin.",
		Tags:        []string{"pipeline"},
		Errors:      []int{401, 422},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.ScaleRequest) (*models.ScaleResponse, error) {
		s.proc.ForceScaleLevel(input.Body.Level)
		return &models.ScaleResponse{Body: s.scaleLevelsData()}, nil
	})

	// Clear error state and latches
	huma.Register(s.api, huma.Operation{
		OperationID: "reset-errors",
		Method:      http.MethodPost,
		Path:        "/api/pipeline/reset-errors",
		Summary:     "Reset Errors",
		Description: "Clear error counters and release the emergency fallback latch",
		Tags:        []string{"pipeline"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.ResetErrorsResponse, error) {
		s.proc.ResetErrors()
		return &models.ResetErrorsResponse{
			Body: models.ResetErrorsData{
				Status:  "ok",
				Message: "error state cleared",
			},
		}, nil
	})

	// Safety monitoring toggle
	huma.Register(s.api, huma.Operation{
		OperationID: "set-safety-monitoring",
		Method:      http.MethodPut,
		Path:        "/api/pipeline/safety",
		Summary:     "Safety Monitoring",
		Description: "Enable or disable safety checks. An already latched fallback stays latched.",
		Tags:        []string{"pipeline"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.SafetyRequest) (*models.SafetyResponse, error) {
		s.proc.SetSafetyMonitoring(input.Body.Enabled)
		m := s.proc.Metrics()
		return &models.SafetyResponse{
			Body: models.SafetyData{
				Enabled:                 s.proc.SafetyMonitoringEnabled(),
				EmergencyFallbackActive: m.EmergencyFallbackActive,
				ThermalThrottlingActive: m.ThermalThrottlingActive,
			},
		}, nil
	})

	// Current tunable configuration
	huma.Register(s.api, huma.Operation{
		OperationID: "get-pipeline-config",
		Method:      http.MethodGet,
		Path:        "/api/pipeline/config",
		Summary:     "Pipeline Config",
		Description: "Get the runtime-tunable pipeline settings",
		Tags:        []string{"pipeline"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.ConfigResponse, error) {
		return &models.ConfigResponse{Body: s.configData()}, nil
	})

	// Runtime config update
	huma.Register(s.api, huma.Operation{
		OperationID: "update-pipeline-config",
		Method:      http.MethodPut,
		Path:        "/api/pipeline/config",
		Summary:     "Update Pipeline Config",
		Description: "Apply new runtime-tunable settings. Frame geometry is fixed at startup.",
		Tags:        []string{"pipeline"},
		Errors:      []int{400, 401, 422},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.ConfigUpdateRequest) (*models.ConfigResponse, error) {
		next := s.proc.Config()
		next.TargetFPS = input.Body.TargetFPS
		next.MaxQueueSize = input.Body.MaxQueueSize
		next.EnableAdaptiveQuality = input.Body.EnableAdaptiveQuality
		next.EnableSafetyMonitoring = input.Body.EnableSafetyMonitoring
		next.ThermalLimitCelsius = input.Body.ThermalLimitCelsius
		next.MaxConsecutiveErrors = input.Body.MaxConsecutiveErrors
		next.BatchSize = input.Body.BatchSize

		if err := s.proc.UpdateConfig(next, "api"); err != nil {
			if errors.Is(err, pipeline.ErrInvalidConfig) {
				return nil, huma.Error422UnprocessableEntity("invalid configuration", err)
			}
			return nil, huma.Error400BadRequest("configuration rejected", err)
		}
		return &models.ConfigResponse{Body: s.configData()}, nil
	})

	// Memory usage
	huma.Register(s.api, huma.Operation{
		OperationID: "get-pipeline-memory",
		Method:      http.MethodGet,
		Path:        "/api/pipeline/memory",
		Summary:     "Pipeline Memory",
		Description: "Get the advisory frame memory estimate and pressure state",
		Tags:        []string{"pipeline"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.MemoryResponse, error) {
		return &models.MemoryResponse{
			Body: models.MemoryData{
				UsageMB:  s.proc.MemoryUsageMB(),
				LimitMB:  s.proc.Config().MaxMemoryMB,
				Pressure: s.proc.MemoryPressure(),
			},
		}, nil
	})
}

func (s *Server) scaleLevelsData() models.ScaleLevelsData {
	presets := pipeline.ScaleLevels()
	levels := make([]models.ScaleLevelData, len(presets))
	for i, res := range presets {
		levels[i] = models.ScaleLevelData{
			Level:  i,
			Width:  res.Width,
			Height: res.Height,
		}
	}
	m := s.proc.Metrics()
	return models.ScaleLevelsData{
		Levels:  levels,
		Current: m.CurrentScaleLevel,
		Forced:  s.proc.ForcedScaleLevel() >= 0,
	}
}

func (s *Server) configData() models.ConfigData {
	cfg := s.proc.Config()
	return models.ConfigData{
		TargetFPS:              cfg.TargetFPS,
		MaxQueueSize:           cfg.MaxQueueSize,
		EnableAdaptiveQuality:  cfg.EnableAdaptiveQuality,
		EnableSafetyMonitoring: cfg.EnableSafetyMonitoring,
		ThermalLimitCelsius:    cfg.ThermalLimitCelsius,
		MaxConsecutiveErrors:   cfg.MaxConsecutiveErrors,
		BatchSize:              cfg.BatchSize,
	}
}
