package fields

import (
	"regexp"
	"strconv"
	"strings"
)

// prescriptionStreetTokens is matched as lowercase substrings. It differs from
// patientStreetTokens (no drive/ridge/wheeler); keep the two lists separate.
var prescriptionStreetTokens = []string{"dr", "street", "st", "rd", "blvd", "ave", "court", "ash"}

var (
	nameSeparators  = regexp.MustCompile(`[_|:]+`)
	nameDisallowed  = regexp.MustCompile(`[^A-Za-z \-.]`)
	nameInText      = regexp.MustCompile(`Name[:\s]*([A-Z][A-Za-z\-.' ]{2,})`)
	labeledDate     = regexp.MustCompile(`(?i)Date[:\s]*([0-3]?\d[/\-][0-1]?\d[/\-]\d{2,4})`)
	bareDate        = regexp.MustCompile(`\b([0-3]?\d[/\-][0-1]?\d[/\-]\d{2,4})\b`)
	singleLetter    = regexp.MustCompile(`^[A-Za-z]$`)
	anyDigit        = regexp.MustCompile(`\d`)
	areaCode        = regexp.MustCompile(`\(\d{3}\)`)
	refillCount     = regexp.MustCompile(`(?i)Refill[:\s]*([0-9]+)`)
	medicineHeaders = []string{"name", "date", "address"}
)

// PrescriptionExtractor reads name, date, address, medicines, directions and
// refill count from a prescription transcript.
type PrescriptionExtractor struct{}

func (PrescriptionExtractor) Kind() Kind { return KindPrescription }

func (e PrescriptionExtractor) Extract(text string) Record {
	return e.ExtractPrescription(text)
}

// ExtractPrescription is Extract with the concrete result type.
func (PrescriptionExtractor) ExtractPrescription(text string) Prescription {
	doc := Normalize(text)
	return Prescription{
		Type:       KindPrescription,
		Name:       resolveString(doc, labeledName, nameFromText),
		Date:       resolveString(doc, dateAfterLabel, firstBareDate),
		Address:    resolveString(doc, labeledAddress, streetLikeLine),
		Medicines:  medicineLines(doc),
		Directions: directionsBlock(doc),
		Refill:     refillTimes(doc),
	}
}

// labeledName reads the first "Name..." line. OCR often puts the date on the
// same line, so everything from a literal "Date" onwards is dropped.
func labeledName(doc *Document) (string, bool) {
	i := doc.indexWithPrefix("name")
	if i < 0 {
		return "", false
	}
	part := doc.Lines[i]
	if rest, ok := afterColon(part); ok {
		part = rest
	}
	part, _, _ = strings.Cut(part, "Date")
	part = strings.TrimSpace(nameSeparators.ReplaceAllString(part, " "))
	part = strings.TrimSpace(nameDisallowed.ReplaceAllString(part, ""))
	return nonEmpty(part)
}

func nameFromText(doc *Document) (string, bool) {
	m := nameInText.FindStringSubmatch(doc.Text)
	if m == nil {
		return "", false
	}
	return nonEmpty(strings.TrimSpace(m[1]))
}

func dateAfterLabel(doc *Document) (string, bool) {
	return firstGroup(labeledDate, doc.Text)
}

func firstBareDate(doc *Document) (string, bool) {
	return firstGroup(bareDate, doc.Text)
}

// labeledAddress joins the text after "Address:" with at most three
// continuation lines. A directions or name line, or a lone letter (a common
// scanner artifact), ends the block.
func labeledAddress(doc *Document) (string, bool) {
	i := doc.indexWithPrefix("address")
	if i < 0 {
		return "", false
	}
	var parts []string
	if rest, ok := afterColon(doc.Lines[i]); ok {
		parts = append(parts, rest)
	}
	for j := i + 1; j < len(doc.Lines) && j < i+4; j++ {
		next := doc.Lines[j]
		if hasAnyPrefixFold(next, "directions", "name") || singleLetter.MatchString(next) {
			break
		}
		parts = append(parts, next)
	}
	return nonEmpty(joinFragments(parts))
}

// streetLikeLine finds an unlabeled address: a line with a digit, a street
// token and no area code.
func streetLikeLine(doc *Document) (string, bool) {
	for _, ln := range doc.Lines {
		if !anyDigit.MatchString(ln) || areaCode.MatchString(ln) || runeLen(ln) <= 5 {
			continue
		}
		if containsAnyFold(ln, prescriptionStreetTokens) {
			return ln, true
		}
	}
	return "", false
}

// medicineLines collects the lines between the address label (or the top of
// the document) and the directions label.
func medicineLines(doc *Document) []string {
	start := 0
	if i := doc.indexWithPrefix("address"); i >= 0 {
		start = i + 1
	}
	end := len(doc.Lines)
	if i := doc.indexWithPrefix("directions"); i >= 0 {
		end = i
	}

	meds := []string{}
	for i := start; i < end; i++ {
		ln := strings.TrimSpace(doc.Lines[i])
		if hasAnyPrefixFold(ln, medicineHeaders...) {
			continue
		}
		if runeLen(ln) <= 2 {
			continue
		}
		meds = append(meds, ln)
	}
	return meds
}

func directionsBlock(doc *Document) *string {
	start := doc.indexWithPrefix("directions")
	if start < 0 {
		return nil
	}
	var parts []string
	for j := start; j < len(doc.Lines); j++ {
		ln := doc.Lines[j]
		if hasPrefixFold(ln, "refill") {
			break
		}
		if j == start {
			rest, _ := afterColon(ln)
			parts = append(parts, rest)
			continue
		}
		parts = append(parts, ln)
	}
	return optional(joinFragments(parts))
}

func refillTimes(doc *Document) *int {
	m := refillCount.FindStringSubmatch(doc.Text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

func firstGroup(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return nonEmpty(strings.TrimSpace(m[1]))
}
