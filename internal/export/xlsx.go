// Package export renders extracted records as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/toricodesthings/medscan-service/internal/fields"
)

const sheet = "Extraction"

// ContentType is the MIME type of WriteXLSX output.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type row struct {
	field string
	value any
}

// WriteXLSX writes rec as a two-column Field/Value workbook. Absent fields
// get a blank value cell; each medicine gets its own row.
func WriteXLSX(w io.Writer, rec fields.Record) error {
	rows, err := recordRows(rec)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("xlsx sheet: %w", err)
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	write := func(col, r int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, r)
		_ = f.SetCellValue(sheet, cell, v)
	}

	write(1, 1, "Field")
	write(2, 1, "Value")
	for i, rw := range rows {
		write(1, i+2, rw.field)
		if rw.value != nil {
			write(2, i+2, rw.value)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "B", "B", 60)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func recordRows(rec fields.Record) ([]row, error) {
	switch r := rec.(type) {
	case fields.Prescription:
		rows := []row{
			{"Type", string(r.Type)},
			{"Name", deref(r.Name)},
			{"Date", deref(r.Date)},
			{"Address", deref(r.Address)},
		}
		for _, m := range r.Medicines {
			rows = append(rows, row{"Medicine", m})
		}
		rows = append(rows, row{"Directions", deref(r.Directions)})
		var refill any
		if r.Refill != nil {
			refill = *r.Refill
		}
		return append(rows, row{"Refill", refill}), nil
	case fields.Patient:
		return []row{
			{"Type", string(r.Type)},
			{"Name", deref(r.Name)},
			{"Address", deref(r.Address)},
		}, nil
	}
	return nil, fmt.Errorf("cannot export record of type %T", rec)
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
