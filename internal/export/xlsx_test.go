package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/toricodesthings/medscan-service/internal/fields"
)

func readRows(t *testing.T, b []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheet}, f.GetSheetList())
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestWriteXLSXPrescription(t *testing.T) {
	name, refill := "Maria Sharapova", 2
	rec := fields.Prescription{
		Type:      fields.KindPrescription,
		Name:      &name,
		Medicines: []string{"Prednisone 20 mg", "Lialda 2.4 gram"},
		Refill:    &refill,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, rec))

	rows := readRows(t, buf.Bytes())
	assert.Equal(t, [][]string{
		{"Field", "Value"},
		{"Type", "prescription"},
		{"Name", "Maria Sharapova"},
		{"Date"},
		{"Address"},
		{"Medicine", "Prednisone 20 mg"},
		{"Medicine", "Lialda 2.4 gram"},
		{"Directions"},
		{"Refill", "2"},
	}, rows)
}

func TestWriteXLSXPatient(t *testing.T) {
	rec := fields.PatientExtractor{}.Extract("Kathy Crawford May 6 1972")

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, rec))

	rows := readRows(t, buf.Bytes())
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Name", "Kathy Crawford"}, rows[2])
}

func TestWriteXLSXRejectsUnknownRecords(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteXLSX(&buf, nil))
}
