package service

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/noah-isme/learning-intel-api/internal/models"
	"github.com/noah-isme/learning-intel-api/pkg/classifier"
)

// difficultChapterThreshold marks chapters whose average completion
// probability falls below it.
const difficultChapterThreshold = 0.5

// Predictor scores augmented batches with an immutable completion model.
type Predictor struct {
	model classifier.Model
}

// NewPredictor binds a predictor to a fitted model.
func NewPredictor(model classifier.Model) *Predictor {
	return &Predictor{model: model}
}

// Predict scores every row in input order. The model always receives
// time_spent_min, score_percent and chapter_order; the feature set is
// informational. A failing row yields an error entry and scoring continues.
func (p *Predictor) Predict(batch models.AugmentedBatch, _ models.FeatureSet) []models.Prediction {
	predictions := make([]models.Prediction, len(batch.Rows))
	for i, row := range batch.Rows {
		predictions[i] = p.predictRow(row)
	}
	return predictions
}

func (p *Predictor) predictRow(row models.AugmentedRow) models.Prediction {
	prediction := models.Prediction{
		StudentID: studentID(row),
		CourseID:  row.Record[models.ColumnCourseID],
	}

	vector, chapter, err := featureVector(row.Record)
	if err != nil {
		prediction.Error = err.Error()
		return prediction
	}
	prediction.ChapterOrder = chapter

	probability, err := p.model.PredictProba(vector)
	if err != nil {
		prediction.Error = err.Error()
		return prediction
	}
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		prediction.Error = fmt.Sprintf("model returned invalid probability %v", probability)
		return prediction
	}

	// tiers follow the reported (rounded) probability
	rounded := round3(probability)
	prediction.Score = &models.Score{
		CompletionProbability: rounded,
		RiskLevel:             models.RiskLevelFor(rounded),
		PredictedCompletion:   models.PredictedCompletionFor(rounded),
	}
	return prediction
}

func featureVector(record models.Record) ([]float64, int, error) {
	timeSpent, err := record.Float(models.ColumnTimeSpentMin)
	if err != nil {
		return nil, 0, err
	}
	score, err := record.Float(models.ColumnScorePercent)
	if err != nil {
		return nil, 0, err
	}
	chapter := 1.0
	if raw, ok := record.Value(models.ColumnChapterOrder); ok && raw != "" {
		if chapter, err = record.Float(models.ColumnChapterOrder); err != nil {
			return nil, 0, err
		}
	}
	return []float64{timeSpent, score, chapter}, int(chapter), nil
}

func studentID(row models.AugmentedRow) string {
	if id, ok := row.Record.Value(models.ColumnStudentID); ok && id != "" {
		return id
	}
	return "S" + strconv.Itoa(row.Index)
}

// GenerateInsights aggregates predictions for the original batch.
// AverageCompletionProbability is nil when no row was scored.
func (p *Predictor) GenerateInsights(batch models.Batch, predictions []models.Prediction) models.Insights {
	insights := models.Insights{
		HighRiskStudents:     []string{},
		TotalStudents:        batch.Len(),
		KeyCompletionFactors: append([]string(nil), models.KeyCompletionFactors...),
		DifficultChapters:    []int{},
		Recommendations:      models.DefaultRecommendation,
	}

	var sum float64
	var scored int
	chapterSums := make(map[int]float64)
	chapterCounts := make(map[int]int)
	for _, prediction := range predictions {
		if !prediction.OK() {
			continue
		}
		if prediction.RiskLevel == models.RiskHigh {
			insights.HighRiskStudents = append(insights.HighRiskStudents, prediction.StudentID)
		}
		sum += prediction.CompletionProbability
		scored++
		if prediction.ChapterOrder > 0 {
			chapterSums[prediction.ChapterOrder] += prediction.CompletionProbability
			chapterCounts[prediction.ChapterOrder]++
		}
	}
	insights.HighRiskCount = len(insights.HighRiskStudents)

	if scored > 0 {
		avg := round3(sum / float64(scored))
		insights.AverageCompletionProbability = &avg
	}

	for chapter, count := range chapterCounts {
		if chapterSums[chapter]/float64(count) < difficultChapterThreshold {
			insights.DifficultChapters = append(insights.DifficultChapters, chapter)
		}
	}
	sort.Ints(insights.DifficultChapters)

	return insights
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
