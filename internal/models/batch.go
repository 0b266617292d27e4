package models

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Learner record columns recognised by the processor and predictor.
const (
	ColumnStudentID    = "student_id"
	ColumnCourseID     = "course_id"
	ColumnTimeSpentMin = "time_spent_min"
	ColumnScorePercent = "score_percent"
	ColumnChapterOrder = "chapter_order"

	ColumnEngagementScore = "engagement_score"
	ColumnTimeScoreRatio  = "time_score_ratio"
	ColumnPerfLevel       = "perf_level"
	ColumnTimeLevel       = "time_level"
)

// RequiredColumns lists the columns every learner batch must carry.
var RequiredColumns = []string{ColumnStudentID, ColumnCourseID, ColumnTimeSpentMin, ColumnScorePercent}

// Record is one student-course observation keyed by column name. Cells keep
// their raw textual form so malformed values surface per row at scoring time.
type Record map[string]string

// Value returns the trimmed cell for the column and whether it was set.
func (r Record) Value(column string) (string, bool) {
	raw, ok := r[column]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(raw), true
}

// Float parses the column as a float64.
func (r Record) Float(column string) (float64, error) {
	raw, ok := r.Value(column)
	if !ok || raw == "" {
		return 0, fmt.Errorf("%s is missing", column)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("could not convert %s value %q to float", column, raw)
	}
	return v, nil
}

// FloatOrNaN parses the column, yielding NaN for blank or malformed cells.
func (r Record) FloatOrNaN(column string) float64 {
	v, err := r.Float(column)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Batch is an ordered table of learner records sharing one header.
type Batch struct {
	Columns []string
	Rows    []Record
}

// NewBatch builds a batch from records, deriving the header from the first
// appearance of every key.
func NewBatch(records ...Record) Batch {
	var columns []string
	seen := make(map[string]struct{})
	for _, record := range records {
		keys := make([]string, 0, len(record))
		for key := range record {
			if _, ok := seen[key]; !ok {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		for _, key := range keys {
			seen[key] = struct{}{}
			columns = append(columns, key)
		}
	}
	return Batch{Columns: columns, Rows: records}
}

// HasColumn reports whether the header contains the column.
func (b Batch) HasColumn(column string) bool {
	for _, c := range b.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (b Batch) Len() int {
	return len(b.Rows)
}

// Level buckets a numeric feature. The empty level means unclassified.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Features holds the derived columns for one row.
type Features struct {
	EngagementScore float64 `json:"engagement_score"`
	TimeScoreRatio  float64 `json:"time_score_ratio"`
	PerfLevel       Level   `json:"perf_level,omitempty"`
	TimeLevel       Level   `json:"time_level,omitempty"`
}

// AugmentedRow pairs an input record with its derived features.
type AugmentedRow struct {
	Index    int
	Record   Record
	Features Features
}

// AugmentedBatch is a batch enriched with derived features.
type AugmentedBatch struct {
	Columns []string
	Rows    []AugmentedRow
}

// HasColumn reports whether the augmented header contains the column.
func (b AugmentedBatch) HasColumn(column string) bool {
	for _, c := range b.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// FeatureSet names the columns advertised to the predictor.
type FeatureSet struct {
	names []string
}

// NewFeatureSet builds the feature set for an augmented batch.
func NewFeatureSet(withChapterOrder bool) FeatureSet {
	names := []string{ColumnTimeSpentMin, ColumnScorePercent, ColumnEngagementScore, ColumnTimeScoreRatio}
	if withChapterOrder {
		names = append(names, ColumnChapterOrder)
	}
	return FeatureSet{names: names}
}

// Names returns a copy of the ordered feature names.
func (f FeatureSet) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Has reports whether the feature is part of the set.
func (f FeatureSet) Has(name string) bool {
	for _, n := range f.names {
		if n == name {
			return true
		}
	}
	return false
}

// Len returns the number of features.
func (f FeatureSet) Len() int {
	return len(f.names)
}
