package fields

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var patientStreetTokens = []string{
	"dr", "street", "st", "rd", "blvd", "ave", "court", "drive", "ridge", "ash", "wheeler",
}

const monthNames = `(?:Jan|January|Feb|February|Mar|March|Apr|April|May|Jun|June|Jul|July|Aug|August|Sep|September|Oct|October|Nov|November|Dec|December)`

var (
	nameBeforeBirthDate = regexp.MustCompile(`([A-Z][A-Za-z]+(?:\s[A-Z][A-Za-z]+){1,2})\s+` + monthNames + `\s+\d{1,2}\s+\d{2,4}`)
	patientInfoHeading  = regexp.MustCompile(`(?i)patient information`)
	titleCaseRun        = regexp.MustCompile(`^[A-Z][a-zA-Z]+(?:\s[A-Z][a-zA-Z]+)+`)
	phoneShape          = regexp.MustCompile(`\(\d{3}\)\s*\d{3}`)
	vitalsOrContact     = regexp.MustCompile(`(?i)phone|weight|height|birth|in case of emergency`)
	postalCode          = regexp.MustCompile(`\d{5}`)
)

// PatientExtractor reads the patient's name and street address from an
// intake record transcript.
type PatientExtractor struct{}

func (PatientExtractor) Kind() Kind { return KindPatient }

func (e PatientExtractor) Extract(text string) Record {
	return e.ExtractPatient(text)
}

// ExtractPatient is Extract with the concrete result type.
func (PatientExtractor) ExtractPatient(text string) Patient {
	doc := Normalize(text)
	return Patient{
		Type:    KindPatient,
		Name:    resolveString(doc, nameBeforeBirth, nameUnderPatientHeading, firstTitleCasePair),
		Address: resolveString(doc, patientStreetAddress),
	}
}

// nameBeforeBirth captures two or three capitalized words immediately
// followed by a "Month D YYYY" birth date.
func nameBeforeBirth(doc *Document) (string, bool) {
	name, ok := firstGroup(nameBeforeBirthDate, doc.Text)
	if !ok || mentionsCountry(name) {
		return "", false
	}
	return name, true
}

func nameUnderPatientHeading(doc *Document) (string, bool) {
	for i, ln := range doc.Lines {
		if !patientInfoHeading.MatchString(ln) {
			continue
		}
		for j := i + 1; j < len(doc.Lines) && j < i+5; j++ {
			if !titleCaseRun.MatchString(doc.Lines[j]) {
				continue
			}
			if name := firstTwoTokens(doc.Lines[j]); !mentionsCountry(name) {
				return name, true
			}
		}
	}
	return "", false
}

// firstTitleCasePair is the last resort: any digit-free line opening with two
// capitalized tokens. "United States" is the usual false positive.
func firstTitleCasePair(doc *Document) (string, bool) {
	for _, ln := range doc.Lines {
		tokens := strings.Fields(ln)
		if len(tokens) < 2 || !startsUpper(tokens[0]) || !startsUpper(tokens[1]) {
			continue
		}
		if anyDigit.MatchString(ln) {
			continue
		}
		if mentionsCountry(ln) {
			continue
		}
		return tokens[0] + " " + tokens[1], true
	}
	return "", false
}

func patientStreetAddress(doc *Document) (string, bool) {
	for i, ln := range doc.Lines {
		if phoneShape.MatchString(ln) {
			continue
		}
		if !anyDigit.MatchString(ln) || vitalsOrContact.MatchString(ln) {
			continue
		}
		if !containsAnyFold(ln, patientStreetTokens) {
			continue
		}
		addr := ln
		if i+1 < len(doc.Lines) && postalCode.MatchString(doc.Lines[i+1]) {
			addr += ", " + doc.Lines[i+1]
		}
		return addr, true
	}
	return "", false
}

// mentionsCountry guards every name strategy against "United States", which
// sits next to the address block on intake forms.
func mentionsCountry(s string) bool {
	return strings.Contains(s, "United") || strings.Contains(s, "States")
}

func firstTwoTokens(s string) string {
	tokens := strings.Fields(s)
	if len(tokens) > 2 {
		tokens = tokens[:2]
	}
	return strings.Join(tokens, " ")
}

func startsUpper(tok string) bool {
	r, _ := utf8.DecodeRuneInString(tok)
	return unicode.IsUpper(r)
}
