package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toricodesthings/medscan-service/internal/fields"
)

func str(s string) *string { return &s }
func num(n int) *int       { return &n }

func TestValidateExtractedRecords(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	texts := []string{
		"",
		"Name: Maria Sharapova\nDate: 5/11/2022\nAddress: 9 tennis court\nPrednisone 20 mg\nDirections: daily\nRefill: 2",
		"Patient Information\nKathy Crawford May 6 1972\n9264 Ash Dr 98\nNew York City, 10005",
	}
	for _, text := range texts {
		for _, e := range []fields.Extractor{fields.PrescriptionExtractor{}, fields.PatientExtractor{}} {
			assert.NoError(t, v.Validate(e.Extract(text)), "text %q", text)
		}
	}
}

func TestValidateRejectsBrokenRecords(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	tests := []struct {
		name string
		rec  fields.Record
	}{
		{"negative refill", fields.Prescription{Type: fields.KindPrescription, Medicines: []string{}, Refill: num(-1)}},
		{"nil medicines", fields.Prescription{Type: fields.KindPrescription}},
		{"empty name", fields.Patient{Type: fields.KindPatient, Name: str("")}},
		{"wrong type tag", fields.Patient{Type: fields.KindPrescription}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, v.Validate(tt.rec))
		})
	}
	assert.Error(t, v.Validate(nil))
}

func TestRawSchemasAreJSON(t *testing.T) {
	for _, kind := range []fields.Kind{fields.KindPrescription, fields.KindPatient} {
		b, err := Raw(kind)
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(b, &doc))
		assert.Contains(t, doc, "required")
	}
	_, err := Raw("invoice")
	assert.Error(t, err)
}
