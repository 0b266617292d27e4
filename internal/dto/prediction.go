package dto

import (
	"strconv"

	"github.com/noah-isme/learning-intel-api/internal/models"
)

// SinglePredictionRequest captures POST /predict-single payload.
type SinglePredictionRequest struct {
	StudentID    string   `json:"student_id" validate:"required"`
	CourseID     string   `json:"course_id" validate:"required"`
	TimeSpentMin *float64 `json:"time_spent_min" validate:"required"`
	ScorePercent *float64 `json:"score_percent" validate:"required"`
	ChapterOrder *int     `json:"chapter_order,omitempty" validate:"omitempty,min=1"`
}

// Record converts the request into a learner record, defaulting
// chapter_order to 1.
func (r SinglePredictionRequest) Record() models.Record {
	chapter := 1
	if r.ChapterOrder != nil {
		chapter = *r.ChapterOrder
	}
	record := models.Record{
		models.ColumnStudentID:    r.StudentID,
		models.ColumnCourseID:     r.CourseID,
		models.ColumnChapterOrder: strconv.Itoa(chapter),
	}
	if r.TimeSpentMin != nil {
		record[models.ColumnTimeSpentMin] = strconv.FormatFloat(*r.TimeSpentMin, 'g', -1, 64)
	}
	if r.ScorePercent != nil {
		record[models.ColumnScorePercent] = strconv.FormatFloat(*r.ScorePercent, 'g', -1, 64)
	}
	return record
}

// BatchPredictionResponse is returned by batch scoring on every surface.
type BatchPredictionResponse struct {
	Status      string              `json:"status"`
	Predictions []models.Prediction `json:"predictions"`
	Insights    models.Insights     `json:"insights"`
}

// SinglePredictionResponse is returned by POST /predict-single.
type SinglePredictionResponse struct {
	Status     string             `json:"status"`
	Prediction *models.Prediction `json:"prediction"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
