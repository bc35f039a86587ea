package export

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Student", "Final"},
		Rows: []map[string]string{
			{"Student": "Adams, Ann", "Final": "80.0"},
			{"Student": "Brown, Ben"},
		},
		Notes: []string{"Class average: 80.0"},
	}
}

func TestCSVRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Student,Final\n\"Adams, Ann\",80.0\n\"Brown, Ben\",\n", string(out))
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.ErrorIs(t, err, ErrNoHeaders)
}

func TestCSVRenderQuotesFormulaCells(t *testing.T) {
	data := Dataset{
		Headers: []string{"Student", "Comment", "Delta"},
		Rows: []map[string]string{
			{"Student": "=HYPERLINK(\"x\")", "Comment": "@home", "Delta": "-2.5"},
			{"Student": "+Plus", "Comment": "-", "Delta": "+3"},
		},
	}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Student,Comment,Delta\n\"'=HYPERLINK(\"\"x\"\")\",'@home,-2.5\n'+Plus,'-,+3\n", string(out))
}

func TestPDFRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Grade 9 Mathematics: Term 1")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestPDFRenderManyRows(t *testing.T) {
	data := Dataset{Headers: []string{"A", "B", "C", "D", "E", "F", "G"}}
	for i := 0; i < 120; i++ {
		data.Rows = append(data.Rows, map[string]string{"A": fmt.Sprintf("Élève %d", i)})
	}
	out, err := NewPDFExporter().Render(data, "")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
