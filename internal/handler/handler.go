package handler

import (
	"context"

	"crypto-sentinel/internal/domain"
	"crypto-sentinel/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type scanRunner interface {
	RunDailyScan(ctx context.Context, persona string) (service.ScanResult, error)
	EvaluatePrevious(ctx context.Context) (domain.EvaluationSummary, error)
}

type statsSource interface {
	PerformanceStats(ctx context.Context) (domain.PerformanceStats, error)
}

type reporter interface {
	GenerateReport(ctx context.Context) (string, error)
	ExportValidationData(ctx context.Context) (map[string]any, error)
}

type metricsSource interface {
	Snapshot(ctx context.Context) (domain.ScanMetrics, error)
}

type personaDirectory interface {
	Known(persona string) bool
}

type Handler struct {
	tracer         trace.Tracer
	scans          scanRunner
	stats          statsSource
	reports        reporter
	metrics        metricsSource
	personas       personaDirectory
	defaultPersona string
}

func New(
	tracer trace.Tracer,
	scans scanRunner,
	stats statsSource,
	reports reporter,
	metrics metricsSource,
	personas personaDirectory,
	defaultPersona string,
) *Handler {
	return &Handler{
		tracer:         tracer,
		scans:          scans,
		stats:          stats,
		reports:        reports,
		metrics:        metrics,
		personas:       personas,
		defaultPersona: defaultPersona,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.POST("/api/scan", h.RunScan)
	r.POST("/api/evaluate", h.Evaluate)
	r.GET("/api/performance", h.Performance)
	r.GET("/api/report", h.Report)
	r.GET("/api/report/export", h.ReportExport)
}
