package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/learning-intel-api/internal/dto"
	"github.com/noah-isme/learning-intel-api/internal/models"
	"github.com/noah-isme/learning-intel-api/internal/service"
	appErrors "github.com/noah-isme/learning-intel-api/pkg/errors"
	"github.com/noah-isme/learning-intel-api/pkg/response"
	"github.com/noah-isme/learning-intel-api/pkg/tabular"
)

const defaultMaxUploadBytes int64 = 10 << 20

type predictionService interface {
	PredictBatch(ctx context.Context, source string, batch models.Batch) (*dto.BatchPredictionResponse, error)
	PredictSingle(ctx context.Context, req dto.SinglePredictionRequest) (*dto.SinglePredictionResponse, error)
	Render(resp *dto.BatchPredictionResponse, format models.ReportFormat) ([]byte, string, error)
}

// PredictionHandler exposes batch and single-record scoring.
type PredictionHandler struct {
	service        predictionService
	maxUploadBytes int64
}

// NewPredictionHandler constructs the handler. maxUploadBytes <= 0 selects 10MB.
func NewPredictionHandler(svc predictionService, maxUploadBytes int64) *PredictionHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &PredictionHandler{service: svc, maxUploadBytes: maxUploadBytes}
}

// Predict godoc
// @Summary Batch completion prediction
// @Description Scores every row of an uploaded CSV file and summarises the batch.
// @Tags Predictions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Learner CSV with student_id, course_id, time_spent_min, score_percent"
// @Param format query string false "Response format" Enums(json, csv, pdf)
// @Success 200 {object} dto.BatchPredictionResponse
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /predict [post]
func (h *PredictionHandler) Predict(c *gin.Context) {
	format, err := models.ParseReportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	data, err := h.readUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	table, err := tabular.DecodeBytes(data)
	if err != nil {
		if errors.Is(err, tabular.ErrNotText) {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrUnsupportedMedia.Code, appErrors.ErrUnsupportedMedia.Status, "file must be a CSV document"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidUpload.Code, appErrors.ErrInvalidUpload.Status, err.Error()))
		return
	}

	result, err := h.service.PredictBatch(c.Request.Context(), service.SourceUpload, service.BatchFromTable(table))
	if err != nil {
		response.Error(c, err)
		return
	}

	if format == models.ReportFormatJSON {
		response.Body(c, http.StatusOK, result)
		return
	}
	payload, contentType, err := h.service.Render(result, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("predictions-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
	response.Attachment(c, filename, contentType, payload)
}

func (h *PredictionHandler) readUpload(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes))
		}
		return nil, appErrors.Clone(appErrors.ErrInvalidUpload, "file is required")
	}
	if fileHeader.Size > h.maxUploadBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidUpload.Code, appErrors.ErrInvalidUpload.Status, "failed to open upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidUpload.Code, appErrors.ErrInvalidUpload.Status, "failed to read upload")
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes))
	}
	return data, nil
}

// PredictSingle godoc
// @Summary Single student prediction
// @Tags Predictions
// @Accept json
// @Produce json
// @Param payload body dto.SinglePredictionRequest true "Student metrics"
// @Success 200 {object} dto.SinglePredictionResponse
// @Failure 400 {object} response.Envelope
// @Router /predict-single [post]
func (h *PredictionHandler) PredictSingle(c *gin.Context) {
	var req dto.SinglePredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	result, err := h.service.PredictSingle(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Body(c, http.StatusOK, result)
}
