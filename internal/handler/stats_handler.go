package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pulsetrack/attendance-api/internal/service"
	appErrors "github.com/pulsetrack/attendance-api/pkg/errors"
	"github.com/pulsetrack/attendance-api/pkg/response"
)

// StatsHandler exposes the statistics and reporting endpoints.
type StatsHandler struct {
	stats           *service.StatsService
	reports         *service.ReportService
	defaultTopLimit int
}

// NewStatsHandler constructs the stats handler.
func NewStatsHandler(stats *service.StatsService, reports *service.ReportService, defaultTopLimit int) *StatsHandler {
	if defaultTopLimit <= 0 {
		defaultTopLimit = 10
	}
	return &StatsHandler{stats: stats, reports: reports, defaultTopLimit: defaultTopLimit}
}

// SessionStats returns the per-status counts and rate for one session.
func (h *StatsHandler) SessionStats(c *gin.Context) {
	sessionID, err := intParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	stats, err := h.stats.SessionStats(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// ParticipantStats returns the per-status counts and rate for one participant.
func (h *StatsHandler) ParticipantStats(c *gin.Context) {
	participantID, err := intParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	stats, err := h.stats.ParticipantStats(c.Request.Context(), participantID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// Trend returns the attendance rate series across sessions.
func (h *StatsHandler) Trend(c *gin.Context) {
	points, err := h.stats.Trend(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, points)
}

// TopPerformers returns the top of the attendance ranking. The limit query
// parameter overrides the configured default.
func (h *StatsHandler) TopPerformers(c *gin.Context) {
	limit := h.defaultTopLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid limit parameter"))
			return
		}
		limit = parsed
	}
	ranks, err := h.stats.TopPerformers(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ranks)
}

// History returns a participant's records joined with session details.
func (h *StatsHandler) History(c *gin.Context) {
	participantID, err := intParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.stats.History(c.Request.Context(), participantID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}

// Overview returns ledger-wide totals.
func (h *StatsHandler) Overview(c *gin.Context) {
	overview, err := h.stats.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview)
}

// Distribution returns ledger-wide per-status counts.
func (h *StatsHandler) Distribution(c *gin.Context) {
	distribution, err := h.stats.Distribution(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, distribution)
}

// ExportRanking streams the full ranking as CSV or PDF.
func (h *StatsHandler) ExportRanking(c *gin.Context) {
	format := c.DefaultQuery("format", service.FormatCSV)
	payload, contentType, err := h.reports.RankingReport(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=attendance-ranking.%s", format))
	c.Data(http.StatusOK, contentType, payload)
}

// ExportSession streams one session's records as CSV or PDF.
func (h *StatsHandler) ExportSession(c *gin.Context) {
	sessionID, err := intParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	format := c.DefaultQuery("format", service.FormatCSV)
	payload, contentType, err := h.reports.SessionReport(c.Request.Context(), sessionID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=session-%d.%s", sessionID, format))
	c.Data(http.StatusOK, contentType, payload)
}
