package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learning-intel-api/internal/models"
	appErrors "github.com/noah-isme/learning-intel-api/pkg/errors"
)

func learnerBatch(rows ...models.Record) models.Batch {
	return models.Batch{
		Columns: []string{models.ColumnStudentID, models.ColumnCourseID, models.ColumnTimeSpentMin, models.ColumnScorePercent},
		Rows:    rows,
	}
}

func row(student, course, timeSpent, score string) models.Record {
	return models.Record{
		models.ColumnStudentID:    student,
		models.ColumnCourseID:     course,
		models.ColumnTimeSpentMin: timeSpent,
		models.ColumnScorePercent: score,
	}
}

func TestDataProcessorValidateMissingColumn(t *testing.T) {
	batch := models.Batch{
		Columns: []string{models.ColumnStudentID, models.ColumnCourseID, models.ColumnTimeSpentMin},
		Rows:    []models.Record{{models.ColumnStudentID: "S1"}},
	}
	err := NewDataProcessor().Validate(batch)
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
	assert.Contains(t, err.Error(), "score_percent")
	assert.NotContains(t, err.Error(), "time_spent_min")
}

func TestDataProcessorValidateEmptyBatch(t *testing.T) {
	err := NewDataProcessor().Validate(learnerBatch())
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
	assert.Contains(t, err.Error(), "empty")
}

func TestDataProcessorProcessNoPartialOutput(t *testing.T) {
	augmented, features, err := NewDataProcessor().Process(learnerBatch())
	require.Error(t, err)
	assert.Empty(t, augmented.Rows)
	assert.Zero(t, features.Len())
}

func TestDataProcessorEngineerFeaturesExample(t *testing.T) {
	batch := learnerBatch(row("S1", "C1", "60", "100"))
	augmented := NewDataProcessor().EngineerFeatures(batch)

	require.Len(t, augmented.Rows, 1)
	f := augmented.Rows[0].Features
	assert.InDelta(t, 1.0, f.EngagementScore, 1e-9)
	assert.InDelta(t, 60.0/101.0, f.TimeScoreRatio, 1e-9)
	assert.InDelta(t, 0.594, f.TimeScoreRatio, 0.001)
	assert.Equal(t, models.LevelHigh, f.PerfLevel)
	assert.Equal(t, models.LevelHigh, f.TimeLevel)
}

func TestDataProcessorEngineerFeaturesDoesNotMutateInput(t *testing.T) {
	batch := learnerBatch(row("S1", "C1", "30", "40"))
	augmented := NewDataProcessor().EngineerFeatures(batch)
	augmented.Rows[0].Record[models.ColumnStudentID] = "changed"

	assert.Equal(t, "S1", batch.Rows[0][models.ColumnStudentID])
	assert.Len(t, batch.Columns, 4)
	assert.True(t, augmented.HasColumn(models.ColumnEngagementScore))
	assert.True(t, augmented.HasColumn(models.ColumnTimeLevel))
}

func TestDataProcessorBinBoundaries(t *testing.T) {
	cases := []struct {
		timeSpent, score string
		perf, time       models.Level
	}{
		{"30", "40", models.LevelLow, models.LevelLow},
		{"30.5", "40.5", models.LevelMedium, models.LevelMedium},
		{"60", "70", models.LevelMedium, models.LevelMedium},
		{"61", "71", models.LevelHigh, models.LevelHigh},
		{"0", "0", "", ""},
		{"500", "101", "", models.LevelHigh},
		{"-5", "-1", "", ""},
	}
	p := NewDataProcessor()
	for _, tc := range cases {
		f := p.EngineerFeatures(learnerBatch(row("S", "C", tc.timeSpent, tc.score))).Rows[0].Features
		assert.Equal(t, tc.perf, f.PerfLevel, "score %s", tc.score)
		assert.Equal(t, tc.time, f.TimeLevel, "time %s", tc.timeSpent)
	}
}

func TestDataProcessorUnguardedArithmetic(t *testing.T) {
	p := NewDataProcessor()

	f := p.EngineerFeatures(learnerBatch(row("S", "C", "10", "-1"))).Rows[0].Features
	assert.True(t, math.IsInf(f.TimeScoreRatio, 1))

	f = p.EngineerFeatures(learnerBatch(row("S", "C", "abc", "50"))).Rows[0].Features
	assert.True(t, math.IsNaN(f.EngagementScore))
	assert.True(t, math.IsNaN(f.TimeScoreRatio))
	assert.Equal(t, models.Level(""), f.TimeLevel)
	assert.Equal(t, models.LevelMedium, f.PerfLevel)
}

func TestDataProcessorProcessFeatureSet(t *testing.T) {
	p := NewDataProcessor()
	batch := learnerBatch(row("S1", "C1", "45", "75"), row("S2", "C1", "15", "42"))

	augmented, features, err := p.Process(batch)
	require.NoError(t, err)
	require.Len(t, augmented.Rows, 2)
	assert.Equal(t, "S1", augmented.Rows[0].Record[models.ColumnStudentID])
	assert.Equal(t, "S2", augmented.Rows[1].Record[models.ColumnStudentID])
	assert.Equal(t, []string{"time_spent_min", "score_percent", "engagement_score", "time_score_ratio"}, features.Names())
	assert.False(t, features.Has(models.ColumnChapterOrder))

	batch.Columns = append(batch.Columns, models.ColumnChapterOrder)
	_, features, err = p.Process(batch)
	require.NoError(t, err)
	assert.Equal(t, 5, features.Len())
	assert.Equal(t, models.ColumnChapterOrder, features.Names()[4])
}
