package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/learning-intel-api/internal/models"
	appErrors "github.com/noah-isme/learning-intel-api/pkg/errors"
	"github.com/noah-isme/learning-intel-api/pkg/jobs"
)

// JobTypeRecordRun identifies queued prediction run writes.
const JobTypeRecordRun = "record_prediction_run"

type predictionRunStore interface {
	Create(ctx context.Context, run *models.PredictionRun) error
	LatestByCourse(ctx context.Context, courseID string) (*models.PredictionRun, error)
	ListByCourse(ctx context.Context, courseID string, limit int) ([]models.PredictionRun, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// HistoryService records per-course run summaries and serves the latest one.
// Without a store it reports the informational "no insights" payload.
type HistoryService struct {
	store     predictionRunStore
	cache     *CacheService
	queue     jobDispatcher
	predictor *Predictor
	logger    *zap.Logger
}

// NewHistoryService constructs a HistoryService. store, cache and queue may be nil.
func NewHistoryService(store predictionRunStore, cache *CacheService, queue jobDispatcher, predictor *Predictor, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{store: store, cache: cache, queue: queue, predictor: predictor, logger: logger}
}

// Enabled reports whether runs are persisted.
func (s *HistoryService) Enabled() bool {
	return s != nil && s.store != nil
}

// Record summarises predictions per course and dispatches them for storage.
// Failures are logged and never surface to the caller.
func (s *HistoryService) Record(ctx context.Context, batch models.Batch, predictions []models.Prediction) {
	if !s.Enabled() {
		return
	}
	for _, run := range s.summarise(batch, predictions) {
		run := run
		if s.queue != nil {
			err := s.queue.Enqueue(jobs.Job{ID: run.CourseID, Type: JobTypeRecordRun, Payload: &run})
			if err == nil {
				continue
			}
			s.logger.Warn("enqueue prediction run failed, writing inline", zap.String("course_id", run.CourseID), zap.Error(err))
		}
		if err := s.persist(ctx, &run); err != nil {
			s.logger.Error("record prediction run failed", zap.String("course_id", run.CourseID), zap.Error(err))
		}
	}
}

// summarise groups rows by course_id in first-seen order.
func (s *HistoryService) summarise(batch models.Batch, predictions []models.Prediction) []models.PredictionRun {
	var order []string
	rows := make(map[string][]models.Record)
	preds := make(map[string][]models.Prediction)
	for i, record := range batch.Rows {
		courseID, _ := record.Value(models.ColumnCourseID)
		if _, seen := rows[courseID]; !seen {
			order = append(order, courseID)
		}
		rows[courseID] = append(rows[courseID], record)
		if i < len(predictions) {
			preds[courseID] = append(preds[courseID], predictions[i])
		}
	}

	runs := make([]models.PredictionRun, 0, len(order))
	for _, courseID := range order {
		if courseID == "" {
			continue
		}
		insights := s.predictor.GenerateInsights(models.Batch{Columns: batch.Columns, Rows: rows[courseID]}, preds[courseID])
		runs = append(runs, models.PredictionRun{
			CourseID:                     courseID,
			TotalStudents:                insights.TotalStudents,
			HighRiskCount:                insights.HighRiskCount,
			HighRiskStudents:             models.StudentIDList(insights.HighRiskStudents),
			AverageCompletionProbability: insights.AverageCompletionProbability,
		})
	}
	return runs
}

func (s *HistoryService) persist(ctx context.Context, run *models.PredictionRun) error {
	if err := s.store.Create(ctx, run); err != nil {
		return err
	}
	_ = s.cache.Invalidate(ctx, courseInsightsKey(run.CourseID))
	return nil
}

// CourseInsights returns the newest recorded run for the course. The bool
// reports a cache hit.
func (s *HistoryService) CourseInsights(ctx context.Context, courseID string) (*models.CourseInsights, bool, error) {
	if courseID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "course_id is required")
	}
	if !s.Enabled() {
		return &models.CourseInsights{CourseID: courseID, Message: models.NoCourseInsightsMessage}, false, nil
	}

	key := courseInsightsKey(courseID)
	var cached models.CourseInsights
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	run, err := s.store.LatestByCourse(ctx, courseID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course insights")
	}
	result := &models.CourseInsights{CourseID: courseID, Latest: run}
	if run == nil {
		result.Message = models.NoCourseInsightsMessage
	}
	_ = s.cache.Set(ctx, key, result, 0)
	return result, false, nil
}

// Runs lists recorded runs for the course, newest first.
func (s *HistoryService) Runs(ctx context.Context, courseID string, limit int) ([]models.PredictionRun, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "run history is disabled")
	}
	runs, err := s.store.ListByCourse(ctx, courseID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list prediction runs")
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	return runs, nil
}

func courseInsightsKey(courseID string) string {
	return fmt.Sprintf("insights:course:%s", courseID)
}

// HistoryWorker bridges queued run records to the store.
type HistoryWorker struct {
	history *HistoryService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewHistoryWorker constructs a worker.
func NewHistoryWorker(history *HistoryService, metrics *MetricsService, logger *zap.Logger) *HistoryWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryWorker{history: history, metrics: metrics, logger: logger}
}

// Handle processes a queue job.
func (w *HistoryWorker) Handle(ctx context.Context, job jobs.Job) error {
	run, ok := job.Payload.(*models.PredictionRun)
	if !ok || run == nil {
		w.logger.Sugar().Errorw("unexpected job payload", "job_id", job.ID, "type", job.Type)
		return nil
	}
	err := w.history.persist(ctx, run)
	w.metrics.RecordHistoryWrite(err)
	return err
}
