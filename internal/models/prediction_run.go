package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportFormat enumerates supported prediction output formats.
type ReportFormat string

const (
	ReportFormatJSON ReportFormat = "json"
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatPDF  ReportFormat = "pdf"
)

// ParseReportFormat normalises a requested format, defaulting to JSON.
func ParseReportFormat(raw string) (ReportFormat, error) {
	switch ReportFormat(raw) {
	case "", ReportFormatJSON:
		return ReportFormatJSON, nil
	case ReportFormatCSV, ReportFormatPDF:
		return ReportFormat(raw), nil
	default:
		return "", fmt.Errorf("unsupported format %q", raw)
	}
}

// StudentIDList stores ordered student identifiers as a JSONB array.
type StudentIDList []string

// Value marshals the list to JSON for persistence.
func (l StudentIDList) Value() (driver.Value, error) {
	if l == nil {
		l = StudentIDList{}
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("marshal student id list: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON array into the list.
func (l *StudentIDList) Scan(value interface{}) error {
	if value == nil {
		*l = StudentIDList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StudentIDList", value)
	}
	if len(data) == 0 {
		*l = StudentIDList{}
		return nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("unmarshal student id list: %w", err)
	}
	*l = ids
	return nil
}

// PredictionRun records the per-course insights of one scored batch.
type PredictionRun struct {
	ID                           string        `db:"id" json:"id"`
	CourseID                     string        `db:"course_id" json:"course_id"`
	TotalStudents                int           `db:"total_students" json:"total_students"`
	HighRiskCount                int           `db:"high_risk_count" json:"high_risk_count"`
	HighRiskStudents             StudentIDList `db:"high_risk_students" json:"high_risk_students"`
	AverageCompletionProbability *float64      `db:"average_completion_probability" json:"average_completion_probability"`
	CreatedAt                    time.Time     `db:"created_at" json:"created_at"`
}

// CourseInsights is the payload served for a course.
type CourseInsights struct {
	CourseID string         `json:"course_id"`
	Message  string         `json:"message,omitempty"`
	Latest   *PredictionRun `json:"latest,omitempty"`
}

// NoCourseInsightsMessage is returned when no run has been recorded for a course.
const NoCourseInsightsMessage = "Load sample data to get insights"
