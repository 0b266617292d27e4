package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const learners = "student_id,course_id,time_spent_min,score_percent,chapter_order\n" +
	"S1,C1,60,100,1\n" +
	"S2,C1,5,10,1\n" +
	"S3,C1,,50,2\n"

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "learners.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunWritesJSONToStdout(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-input", writeInput(t, learners)}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var result struct {
		Status      string                   `json:"status"`
		Predictions []map[string]interface{} `json:"predictions"`
		Insights    map[string]interface{}   `json:"insights"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.Equal(t, "success", result.Status)
	require.Len(t, result.Predictions, 3)
	assert.Equal(t, "LOW", result.Predictions[0]["risk_level"])
	assert.Equal(t, "HIGH", result.Predictions[1]["risk_level"])
	assert.Contains(t, result.Predictions[2], "error")
	assert.Equal(t, float64(3), result.Insights["total_students"])
	assert.NotContains(t, stdout.String(), "Results saved")
}

func TestRunWritesOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.json")
	var stdout, stderr bytes.Buffer
	code := run([]string{"-input", writeInput(t, learners), "-output", out}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	assert.Equal(t, "Results saved to "+out+"\n", stdout.String())
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"status\": \"success\""))
}

func TestRunCSVReport(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-input", writeInput(t, learners), "-format", "csv"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.True(t, strings.HasPrefix(stdout.String(), "student_id,completion_probability,risk_level"))
}

func TestRunFailures(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"missing input flag", nil, "-input is required"},
		{"missing file", []string{"-input", filepath.Join(t.TempDir(), "nope.csv")}, "no such file"},
		{"missing column", []string{"-input", writeInput(t, "student_id,course_id,time_spent_min\nS1,C1,4\n")}, "score_percent"},
		{"empty batch", []string{"-input", writeInput(t, "student_id,course_id,time_spent_min,score_percent\n")}, "empty"},
		{"bad format", []string{"-input", writeInput(t, learners), "-format", "xml"}, "unsupported format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tc.args, &stdout, &stderr)
			assert.Equal(t, 1, code)
			assert.True(t, strings.HasPrefix(stderr.String(), "Error: "), stderr.String())
			assert.Contains(t, stderr.String(), tc.want)
			assert.Empty(t, stdout.String())
		})
	}
}
