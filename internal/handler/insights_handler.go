package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learning-intel-api/internal/middleware"
	"github.com/noah-isme/learning-intel-api/internal/models"
	appErrors "github.com/noah-isme/learning-intel-api/pkg/errors"
	"github.com/noah-isme/learning-intel-api/pkg/response"
)

type insightsService interface {
	CourseInsights(ctx context.Context, courseID string) (*models.CourseInsights, bool, error)
	Runs(ctx context.Context, courseID string, limit int) ([]models.PredictionRun, error)
}

// InsightsHandler serves recorded course insights.
type InsightsHandler struct {
	service insightsService
}

// NewInsightsHandler constructs the handler.
func NewInsightsHandler(svc insightsService) *InsightsHandler {
	return &InsightsHandler{service: svc}
}

// CourseInsights godoc
// @Summary Latest course insights
// @Description Returns the newest recorded run for the course, or an informational message when none exists.
// @Tags Insights
// @Produce json
// @Param course_id path string true "Course ID"
// @Success 200 {object} models.CourseInsights
// @Router /insights/{course_id} [get]
func (h *InsightsHandler) CourseInsights(c *gin.Context) {
	insights, hit, err := h.service.CourseInsights(c.Request.Context(), c.Param("course_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.Body(c, http.StatusOK, insights)
}

// CourseRuns godoc
// @Summary Recorded prediction runs for a course
// @Tags Insights
// @Produce json
// @Param course_id path string true "Course ID"
// @Param limit query int false "Maximum runs" default(20)
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /insights/{course_id}/runs [get]
func (h *InsightsHandler) CourseRuns(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	runs, err := h.service.Runs(c.Request.Context(), c.Param("course_id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, map[string]interface{}{"count": len(runs)})
}
