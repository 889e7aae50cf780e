// Package telemetry publishes pipeline metrics to Prometheus and keeps a
// local snapshot cache for the API layer.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/smazurov/framepipe/internal/pipeline"
)

var (
	pipelineFPS = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "framepipe",
		Subsystem: "pipeline",
		Name:      "fps",
		Help:      "Current processing frame rate",
	}, []string{"instance_id"})

	pipelineAvgProcessingMs = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "framepipe",
		Subsystem: "pipeline",
		Name:      "avg_processing_ms",
		Help:      "Rolling average frame processing time in milliseconds",
	}, []string{"instance_id"})

	pipelineEfficiency = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "framepipe",
		Subsystem: "pipeline",
		Name:      "efficiency_percent",
		Help:      "Measured FPS over target FPS as a percentage",
	}, []string{"instance_id"})

	pipelineFramesProcessed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "framepipe",
		Subsystem: "pipeline",
		Name:      "frames_processed_total",
		Help:      "Total frames successfully processed",
	}, []string{"instance_id"})

	pipelineFramesDropped = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "framepipe",
		Subsystem: "pipeline",
		Name:      "frames_dropped_total",
		Help:      "Total frames rejected or discarded",
	}, []string{"instance_id"})

	pipelineQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "framepipe",
		Subsystem: "pipeline",
		Name:      "queue_depth",
		Help:      "Frames waiting in the input queue",
	}, []string{"instance_id"})

	pipelineScaleLevel = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "framepipe",
		Subsystem: "pipeline",
		Name:      "scale_level",
		Help:      "Active quality preset index",
	}, []string{"instance_id"})

	pipelineAverageQuality = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "framepipe",
		Subsystem: "pipeline",
		Name:      "average_quality",
		Help:      "Smoothed quality score of recent output",
	}, []string{"instance_id"})

	pipelineSkipFactor = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "framepipe",
		Subsystem: "pipeline",
		Name:      "skip_factor",
		Help:      "Warm-up frame-skip factor",
	}, []string{"instance_id"})

	pipelineRampComplete = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "framepipe",
		Subsystem: "pipeline",
		Name:      "ramp_complete",
		Help:      "1 when the startup ramp reached target resolution",
	}, []string{"instance_id"})

	pipelineErrorCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "framepipe",
		Subsystem: "pipeline",
		Name:      "errors_total",
		Help:      "Total processing errors",
	}, []string{"instance_id"})

	pipelineConsecutiveErrors = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "framepipe",
		Subsystem: "pipeline",
		Name:      "consecutive_errors",
		Help:      "Errors since the last successful frame",
	}, []string{"instance_id"})

	pipelineEmergencyFallback = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "framepipe",
		Subsystem: "pipeline",
		Name:      "emergency_fallback_active",
		Help:      "1 while the safety monitor holds the pipeline in fallback",
	}, []string{"instance_id"})

	pipelineThermalThrottling = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "framepipe",
		Subsystem: "pipeline",
		Name:      "thermal_throttling_active",
		Help:      "1 while the thermal latch is set",
	}, []string{"instance_id"})

	pipelineMemoryUsage = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "framepipe",
		Subsystem: "pipeline",
		Name:      "memory_usage_mb",
		Help:      "Advisory estimate of frame memory held by the pipeline",
	}, []string{"instance_id"})

	gpuTemperature = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "framepipe",
		Subsystem: "gpu",
		Name:      "temperature_celsius",
		Help:      "GPU temperature",
	}, []string{"instance_id"})

	gpuUtilization = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "framepipe",
		Subsystem: "gpu",
		Name:      "utilization_percent",
		Help:      "GPU utilization",
	}, []string{"instance_id"})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "framepipe",
		Subsystem: "pipeline",
		Name:      "events_total",
		Help:      "Pipeline events by type",
	}, []string{"instance_id", "event"})

	// Local cache for API access.
	snapshotCache   = make(map[string]pipeline.Metrics)
	snapshotCacheMu sync.RWMutex
)

// Record publishes a metrics snapshot to Prometheus and caches it.
func Record(m pipeline.Metrics) {
	id := m.InstanceID

	pipelineFPS.WithLabelValues(id).Set(m.CurrentFPS)
	pipelineAvgProcessingMs.WithLabelValues(id).Set(m.AvgProcessingMs)
	pipelineEfficiency.WithLabelValues(id).Set(m.Efficiency)
	pipelineFramesProcessed.WithLabelValues(id).Set(float64(m.FramesProcessed))
	pipelineFramesDropped.WithLabelValues(id).Set(float64(m.FramesDropped))
	pipelineQueueDepth.WithLabelValues(id).Set(float64(m.FramesInQueue))
	pipelineScaleLevel.WithLabelValues(id).Set(float64(m.CurrentScaleLevel))
	pipelineAverageQuality.WithLabelValues(id).Set(m.AverageQuality)
	pipelineSkipFactor.WithLabelValues(id).Set(float64(m.SkipFactor))
	pipelineRampComplete.WithLabelValues(id).Set(boolGauge(m.RampComplete))
	pipelineErrorCount.WithLabelValues(id).Set(float64(m.ErrorCount))
	pipelineConsecutiveErrors.WithLabelValues(id).Set(float64(m.ConsecutiveErrors))
	pipelineEmergencyFallback.WithLabelValues(id).Set(boolGauge(m.EmergencyFallbackActive))
	pipelineThermalThrottling.WithLabelValues(id).Set(boolGauge(m.ThermalThrottlingActive))
	pipelineMemoryUsage.WithLabelValues(id).Set(m.MemoryUsageMB)

	if m.GPUAvailable {
		gpuTemperature.WithLabelValues(id).Set(m.GPUTemperature)
		gpuUtilization.WithLabelValues(id).Set(m.GPUUtilization)
	}

	snapshotCacheMu.Lock()
	snapshotCache[id] = m
	snapshotCacheMu.Unlock()
}

// CountEvent increments the event counter for an instance.
func CountEvent(instanceID, event string) {
	eventsTotal.WithLabelValues(instanceID, event).Inc()
}

// Delete removes all metrics for an instance.
func Delete(instanceID string) {
	pipelineFPS.DeleteLabelValues(instanceID)
	pipelineAvgProcessingMs.DeleteLabelValues(instanceID)
	pipelineEfficiency.DeleteLabelValues(instanceID)
	pipelineFramesProcessed.DeleteLabelValues(instanceID)
	pipelineFramesDropped.DeleteLabelValues(instanceID)
	pipelineQueueDepth.DeleteLabelValues(instanceID)
	pipelineScaleLevel.DeleteLabelValues(instanceID)
	pipelineAverageQuality.DeleteLabelValues(instanceID)
	pipelineSkipFactor.DeleteLabelValues(instanceID)
	pipelineRampComplete.DeleteLabelValues(instanceID)
	pipelineErrorCount.DeleteLabelValues(instanceID)
	pipelineConsecutiveErrors.DeleteLabelValues(instanceID)
	pipelineEmergencyFallback.DeleteLabelValues(instanceID)
	pipelineThermalThrottling.DeleteLabelValues(instanceID)
	pipelineMemoryUsage.DeleteLabelValues(instanceID)
	gpuTemperature.DeleteLabelValues(instanceID)
	gpuUtilization.DeleteLabelValues(instanceID)

	snapshotCacheMu.Lock()
	delete(snapshotCache, instanceID)
	snapshotCacheMu.Unlock()
}

// Get returns the last recorded snapshot for an instance.
func Get(instanceID string) (pipeline.Metrics, bool) {
	snapshotCacheMu.RLock()
	defer snapshotCacheMu.RUnlock()
	m, ok := snapshotCache[instanceID]
	return m, ok
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
