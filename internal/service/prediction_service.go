package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/learning-intel-api/internal/dto"
	"github.com/noah-isme/learning-intel-api/internal/models"
	appErrors "github.com/noah-isme/learning-intel-api/pkg/errors"
	"github.com/noah-isme/learning-intel-api/pkg/export"
	"github.com/noah-isme/learning-intel-api/pkg/tabular"
)

// Batch sources used for metrics labels.
const (
	SourceUpload = "upload"
	SourceSingle = "single"
	SourceCLI    = "cli"
)

const statusSuccess = "success"

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

// PredictionService runs raw batches through processing, scoring and
// insight aggregation.
type PredictionService struct {
	processor *DataProcessor
	predictor *Predictor
	history   *HistoryService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	tracer    trace.Tracer
	renderers map[models.ReportFormat]datasetRenderer
}

// NewPredictionService constructs the service. history and metrics may be nil.
func NewPredictionService(processor *DataProcessor, predictor *Predictor, history *HistoryService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *PredictionService {
	if processor == nil {
		processor = NewDataProcessor()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionService{
		processor: processor,
		predictor: predictor,
		history:   history,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		tracer:    otel.Tracer("github.com/noah-isme/learning-intel-api/internal/service/prediction"),
		renderers: map[models.ReportFormat]datasetRenderer{
			models.ReportFormatCSV: export.NewCSVExporter(),
			models.ReportFormatPDF: export.NewPDFExporter(),
		},
	}
}

// BatchFromTable converts a decoded CSV table into a learner batch.
func BatchFromTable(table tabular.Table) models.Batch {
	rows := make([]models.Record, len(table.Rows))
	for i, row := range table.Rows {
		rows[i] = models.Record(row)
	}
	return models.Batch{Columns: table.Header, Rows: rows}
}

// PredictBatch validates, scores and summarises a batch. Validation
// failures abort the whole batch; row failures are reported inline.
func (s *PredictionService) PredictBatch(ctx context.Context, source string, batch models.Batch) (*dto.BatchPredictionResponse, error) {
	predictions, err := s.score(ctx, source, batch)
	if err != nil {
		return nil, err
	}

	_, span := s.tracer.Start(ctx, "prediction.insights")
	insights := s.predictor.GenerateInsights(batch, predictions)
	span.SetAttributes(attribute.Int("prediction.high_risk_count", insights.HighRiskCount))
	span.End()

	s.history.Record(ctx, batch, predictions)

	return &dto.BatchPredictionResponse{Status: statusSuccess, Predictions: predictions, Insights: insights}, nil
}

// PredictSingle scores one validated record.
func (s *PredictionService) PredictSingle(ctx context.Context, req dto.SinglePredictionRequest) (*dto.SinglePredictionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	predictions, err := s.score(ctx, SourceSingle, models.NewBatch(req.Record()))
	if err != nil {
		return nil, err
	}
	resp := &dto.SinglePredictionResponse{Status: statusSuccess}
	if len(predictions) > 0 {
		resp.Prediction = &predictions[0]
	}
	return resp, nil
}

func (s *PredictionService) score(ctx context.Context, source string, batch models.Batch) ([]models.Prediction, error) {
	ctx, span := s.tracer.Start(ctx, "prediction.score")
	defer span.End()
	span.SetAttributes(attribute.String("prediction.source", source), attribute.Int("prediction.rows", batch.Len()))

	start := time.Now()
	augmented, features, err := s.processor.Process(batch)
	if err != nil {
		s.metrics.RecordValidationFailure()
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		s.logger.Info("batch rejected", zap.String("source", source), zap.Error(err))
		return nil, err
	}

	_, predictSpan := s.tracer.Start(ctx, "prediction.predict")
	predictions := s.predictor.Predict(augmented, features)
	predictSpan.End()

	failed := 0
	for _, p := range predictions {
		if !p.OK() {
			failed++
		}
	}
	duration := time.Since(start)
	s.metrics.ObserveBatch(source, predictions, duration)
	span.SetAttributes(attribute.Int("prediction.row_errors", failed))
	s.logger.Info("batch scored",
		zap.String("source", source),
		zap.Int("rows", len(predictions)),
		zap.Int("row_errors", failed),
		zap.Strings("features", features.Names()),
		zap.Duration("duration", duration),
	)
	return predictions, nil
}

// Render encodes a batch response in the requested format and returns the
// bytes with their content type.
func (s *PredictionService) Render(resp *dto.BatchPredictionResponse, format models.ReportFormat) ([]byte, string, error) {
	if format == models.ReportFormatJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("encode json: %w", err)
		}
		return data, "application/json", nil
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
	data, err := renderer.Render(PredictionDataset(resp))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return data, renderer.ContentType(), nil
}

// PredictionDataset flattens predictions and insights into an export dataset.
func PredictionDataset(resp *dto.BatchPredictionResponse) export.Dataset {
	data := export.Dataset{
		Title:   "Course completion predictions",
		Headers: []string{"student_id", "completion_probability", "risk_level", "predicted_completion", "error"},
		Rows:    make([]map[string]string, 0, len(resp.Predictions)),
	}
	for _, p := range resp.Predictions {
		row := map[string]string{"student_id": p.StudentID, "error": p.Error}
		if p.OK() {
			row["completion_probability"] = strconv.FormatFloat(p.CompletionProbability, 'f', 3, 64)
			row["risk_level"] = string(p.RiskLevel)
			row["predicted_completion"] = strconv.Itoa(p.PredictedCompletion)
		}
		data.Rows = append(data.Rows, row)
	}

	in := resp.Insights
	avg := "n/a"
	if in.AverageCompletionProbability != nil {
		avg = strconv.FormatFloat(*in.AverageCompletionProbability, 'f', 3, 64)
	}
	data.Notes = []string{
		fmt.Sprintf("High risk students: %d of %d", in.HighRiskCount, in.TotalStudents),
		fmt.Sprintf("Average completion probability: %s", avg),
		fmt.Sprintf("Recommendation: %s", in.Recommendations),
	}
	if len(in.DifficultChapters) > 0 {
		data.Notes = append(data.Notes, fmt.Sprintf("Difficult chapters: %v", in.DifficultChapters))
	}
	return data
}
