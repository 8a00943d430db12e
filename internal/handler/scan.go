package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// Health godoc
// @Summary      Liveness probe
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunScan godoc
// @Summary      Run the breakout scan pipeline
// @Description  Detects, validates and tracks breakout signals, then renders the persona-shaped briefing
// @Tags         scan
// @Produce      json
// @Param        persona  query  string  false  "Persona preset name"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/scan [post]
func (h *Handler) RunScan(c *gin.Context) {
	if h.scans == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scan service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.run-scan")
	defer span.End()

	persona := strings.TrimSpace(c.Query("persona"))
	if persona == "" {
		persona = h.defaultPersona
	}
	span.SetAttributes(attribute.String("persona", persona))

	if h.personas != nil && !h.personas.Known(persona) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown persona: " + persona})
		return
	}

	res, err := h.scans.RunDailyScan(ctx, persona)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"persona":    res.Persona,
		"signals":    res.Signals,
		"signal_ids": res.SignalIDs,
		"output":     res.Output,
	})
}

// Evaluate godoc
// @Summary      Evaluate tracked signals that have come due
// @Tags         scan
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/evaluate [post]
func (h *Handler) Evaluate(c *gin.Context) {
	if h.scans == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scan service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.evaluate")
	defer span.End()

	summary, err := h.scans.EvaluatePrevious(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Performance godoc
// @Summary      Aggregate performance of evaluated signals
// @Tags         performance
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/performance [get]
func (h *Handler) Performance(c *gin.Context) {
	if h.stats == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "performance tracking unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.performance")
	defer span.End()

	stats, err := h.stats.PerformanceStats(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"stats": stats}
	if h.metrics != nil {
		if snap, err := h.metrics.Snapshot(ctx); err == nil {
			resp["scan_metrics"] = snap
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Report godoc
// @Summary      Render the validation report
// @Tags         performance
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/report [get]
func (h *Handler) Report(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reporting unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.report")
	defer span.End()

	report, err := h.reports.GenerateReport(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// ReportExport godoc
// @Summary      Export validation data for external sharing
// @Tags         performance
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/report/export [get]
func (h *Handler) ReportExport(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reporting unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.report-export")
	defer span.End()

	data, err := h.reports.ExportValidationData(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, data)
}
