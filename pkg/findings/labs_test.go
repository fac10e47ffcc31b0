package findings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medlens/medlens/internal/models"
	"github.com/medlens/medlens/pkg/findings"
)

const labReport = `LABORATORY REPORT

Complete Blood Count
Hemoglobin 10.2 g/dl
HbA1c 6.8 %
Total Cholesterol 210 mg/dl
`

func TestExtractLabValues(t *testing.T) {
	found := findings.ExtractLabValues(labReport)
	require.Len(t, found, 3)

	byTest := make(map[string]models.Finding)
	for _, f := range found {
		assert.Equal(t, models.KindLabValue, f.Kind)
		byTest[f.Test] = f
	}

	hemoglobin, ok := byTest["hemoglobin"]
	require.True(t, ok)
	assert.Equal(t, "10.2", hemoglobin.Value)
	assert.Equal(t, "g/dl", hemoglobin.Unit)

	hba1c, ok := byTest["hba1c"]
	require.True(t, ok)
	assert.Equal(t, "6.8", hba1c.Value)

	cholesterol, ok := byTest["total cholesterol"]
	require.True(t, ok)
	assert.Equal(t, "210", cholesterol.Value)
	assert.Equal(t, "mg/dl", cholesterol.Unit)
}

func TestExtractLabValues_FirstMentionWins(t *testing.T) {
	text := "Hemoglobin 10.2 g/dl\nHemoglobin 13.5 g/dl\n"

	found := findings.ExtractLabValues(text)
	require.Len(t, found, 1)
	assert.Equal(t, "10.2", found[0].Value)
}

func TestExtractLabValues_Deterministic(t *testing.T) {
	first := findings.ExtractLabValues(labReport)
	second := findings.ExtractLabValues(labReport)
	assert.Equal(t, first, second)
}

func TestExtractLabValues_NoMatches(t *testing.T) {
	found := findings.ExtractLabValues("The patient reports feeling well.")
	assert.Empty(t, found)
}

func TestExtractLabValues_InterveningText(t *testing.T) {
	// Qualifier text between the test name and the value must not break
	// extraction, and the qualifier's own numbers must not be taken as the
	// result value.
	text := "Vitamin D, 25-Hydroxy, Total 18.5 ng/ml"

	found := findings.ExtractLabValues(text)
	require.Len(t, found, 1)
	assert.Equal(t, "vitamin d", found[0].Test)
	assert.Equal(t, "18.5", found[0].Value)
	assert.Equal(t, "ng/ml", found[0].Unit)
}
