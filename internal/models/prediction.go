package models

// RiskLevel is the dropout risk tier derived from completion probability.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// RiskLevelFor maps a completion probability to its risk tier.
func RiskLevelFor(probability float64) RiskLevel {
	switch {
	case probability < 0.3:
		return RiskHigh
	case probability < 0.6:
		return RiskMedium
	default:
		return RiskLow
	}
}

// PredictedCompletionFor returns 1 when completion is the likelier outcome.
func PredictedCompletionFor(probability float64) int {
	if probability >= 0.5 {
		return 1
	}
	return 0
}

// Score is the successful outcome of scoring one row.
type Score struct {
	CompletionProbability float64   `json:"completion_probability"`
	RiskLevel             RiskLevel `json:"risk_level"`
	PredictedCompletion   int       `json:"predicted_completion"`
}

// Prediction is the per-row result: either a Score or an error message.
type Prediction struct {
	StudentID string `json:"student_id"`
	*Score
	Error string `json:"error,omitempty"`

	CourseID     string `json:"-"`
	ChapterOrder int    `json:"-"`
}

// OK reports whether the row was scored.
func (p Prediction) OK() bool {
	return p.Score != nil && p.Error == ""
}

// Insights summarises a batch of predictions.
type Insights struct {
	HighRiskStudents             []string `json:"high_risk_students"`
	HighRiskCount                int      `json:"high_risk_count"`
	TotalStudents                int      `json:"total_students"`
	KeyCompletionFactors         []string `json:"key_completion_factors"`
	DifficultChapters            []int    `json:"difficult_chapters"`
	AverageCompletionProbability *float64 `json:"average_completion_probability"`
	Recommendations              string   `json:"recommendations"`
}

// KeyCompletionFactors lists the inputs that drive the completion model.
var KeyCompletionFactors = []string{ColumnTimeSpentMin, ColumnScorePercent}

// DefaultRecommendation is attached to every insights summary.
const DefaultRecommendation = "Focus on high-risk students with personalized intervention"
