// Package fields turns noisy OCR transcripts of medical documents into
// structured records. Extraction is pure: no I/O, no shared state, and no
// error path. A field that cannot be determined is reported as absent (nil).
package fields

import "strings"

// Kind tags the document variant an extractor handles.
type Kind string

const (
	KindPrescription Kind = "prescription"
	KindPatient      Kind = "patient"
)

// Record is the result of one extraction. The concrete type is either
// Prescription or Patient.
type Record interface {
	Kind() Kind
}

// Prescription holds the fields read from a prescription. Nil pointers mean
// the field could not be determined. Medicines is never nil.
type Prescription struct {
	Type       Kind     `json:"type"`
	Name       *string  `json:"name"`
	Date       *string  `json:"date"`
	Address    *string  `json:"address"`
	Medicines  []string `json:"medicines"`
	Directions *string  `json:"directions"`
	Refill     *int     `json:"refill"`
}

func (Prescription) Kind() Kind { return KindPrescription }

// Patient holds the fields read from a patient intake record.
type Patient struct {
	Type    Kind    `json:"type"`
	Name    *string `json:"name"`
	Address *string `json:"address"`
}

func (Patient) Kind() Kind { return KindPatient }

// Extractor is implemented by PrescriptionExtractor and PatientExtractor.
type Extractor interface {
	Extract(text string) Record
	Kind() Kind
}

// ForDocType picks the extractor for a caller-supplied document label. Any
// label starting with "pres" (case-insensitive) selects prescriptions;
// everything else, including an empty label, selects patient records.
func ForDocType(label string) Extractor {
	if strings.HasPrefix(strings.ToLower(label), "pres") {
		return PrescriptionExtractor{}
	}
	return PatientExtractor{}
}

// KindForDocType is ForDocType without constructing an extractor.
func KindForDocType(label string) Kind {
	return ForDocType(label).Kind()
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
