package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Completion predictions",
		Headers: []string{"student_id", "risk_level"},
		Rows: []map[string]string{
			{"student_id": "S1", "risk_level": "LOW"},
			{"student_id": "S2, jr", "risk_level": "HIGH"},
		},
		Notes: []string{"High risk: 1 of 2"},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "student_id,risk_level\nS1,LOW\n\"S2, jr\",HIGH\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	_, err = NewPDFExporter().Render(Dataset{})
	require.Error(t, err)
}
