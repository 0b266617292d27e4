package service

import (
	"math"
	"sort"

	"github.com/noah-isme/learning-intel-api/internal/models"
	appErrors "github.com/noah-isme/learning-intel-api/pkg/errors"
)

// DataProcessor validates raw learner batches and derives model features.
// It holds no state and is safe for concurrent use.
type DataProcessor struct{}

// NewDataProcessor constructs a DataProcessor.
func NewDataProcessor() *DataProcessor {
	return &DataProcessor{}
}

// Validate checks that the batch carries every required column and at least
// one row.
func (p *DataProcessor) Validate(batch models.Batch) error {
	var missing []string
	for _, column := range models.RequiredColumns {
		if !batch.HasColumn(column) {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return appErrors.MissingColumns(missing)
	}
	if batch.Len() == 0 {
		return appErrors.EmptyBatch()
	}
	return nil
}

// EngineerFeatures returns a new augmented batch; the input is not modified.
// Blank or malformed numeric cells propagate as NaN.
func (p *DataProcessor) EngineerFeatures(batch models.Batch) models.AugmentedBatch {
	columns := make([]string, 0, len(batch.Columns)+4)
	columns = append(columns, batch.Columns...)
	columns = append(columns, models.ColumnEngagementScore, models.ColumnTimeScoreRatio, models.ColumnPerfLevel, models.ColumnTimeLevel)

	rows := make([]models.AugmentedRow, len(batch.Rows))
	for i, record := range batch.Rows {
		copied := make(models.Record, len(record))
		for k, v := range record {
			copied[k] = v
		}
		rows[i] = models.AugmentedRow{
			Index:    i,
			Record:   copied,
			Features: deriveFeatures(record.FloatOrNaN(models.ColumnTimeSpentMin), record.FloatOrNaN(models.ColumnScorePercent)),
		}
	}
	return models.AugmentedBatch{Columns: columns, Rows: rows}
}

// Process validates then engineers features, returning the feature set the
// predictor is advertised.
func (p *DataProcessor) Process(batch models.Batch) (models.AugmentedBatch, models.FeatureSet, error) {
	if err := p.Validate(batch); err != nil {
		return models.AugmentedBatch{}, models.FeatureSet{}, err
	}
	augmented := p.EngineerFeatures(batch)
	return augmented, models.NewFeatureSet(augmented.HasColumn(models.ColumnChapterOrder)), nil
}

func deriveFeatures(timeSpent, score float64) models.Features {
	return models.Features{
		EngagementScore: (timeSpent / 60) * (score / 100),
		TimeScoreRatio:  timeSpent / (score + 1),
		PerfLevel:       bucket(score, 40, 70, 100),
		TimeLevel:       bucket(timeSpent, 30, 60, math.Inf(1)),
	}
}

// bucket bins v into right-closed intervals (0,low], (low,mid], (mid,high].
// Values outside (0,high] and NaN stay unclassified.
func bucket(v, low, mid, high float64) models.Level {
	switch {
	case math.IsNaN(v) || v <= 0:
		return ""
	case v <= low:
		return models.LevelLow
	case v <= mid:
		return models.LevelMedium
	case v <= high:
		return models.LevelHigh
	default:
		return ""
	}
}
