package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/toricodesthings/medscan-service/internal/fields"
	"github.com/toricodesthings/medscan-service/internal/pipeline"
)

const rxText = "Name: Maria Sharapova Date: 5/11/2022\nAddress: 9 tennis court\nPrednisone 20 mg\nDirections: take daily\nRefill: 2"

func newTestRouter(src *stubSource, v RecordValidator) *Router {
	reg := NewRegistry()
	reg.Register(src)
	return NewRouter(reg, 1<<20, v)
}

func TestRouterCallsSuccessHookOnSuccessfulExtraction(t *testing.T) {
	router := newTestRouter(&stubSource{name: "text", mts: []string{"text/plain"}, exts: []string{".txt"}, text: rxText}, nil)

	var (
		called      bool
		gotDocType  string
		gotFileType string
		gotFileSize int64
		gotDuration time.Duration
	)
	router.SetSuccessHook(func(docType, fileType string, fileSize int64, duration time.Duration) {
		called = true
		gotDocType = docType
		gotFileType = fileType
		gotFileSize = fileSize
		gotDuration = duration
	})

	const payload = "hello"
	res, err := router.ExtractReader(context.Background(), strings.NewReader(payload), "sample.txt", "Prescription")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !called {
		t.Fatalf("expected success hook to be called")
	}
	if gotDocType != "prescription" || gotFileType != "text" {
		t.Fatalf("hook got docType=%q fileType=%q", gotDocType, gotFileType)
	}
	if gotFileSize != int64(len(payload)) {
		t.Fatalf("expected fileSize=%d, got %d", len(payload), gotFileSize)
	}
	if gotDuration <= 0 {
		t.Fatalf("expected duration > 0, got %s", gotDuration)
	}

	rx, ok := res.Record.(fields.Prescription)
	if !ok {
		t.Fatalf("record is %T, want fields.Prescription", res.Record)
	}
	if rx.Name == nil || *rx.Name != "Maria Sharapova" {
		t.Fatalf("name = %v", rx.Name)
	}
	if rx.Refill == nil || *rx.Refill != 2 {
		t.Fatalf("refill = %v", rx.Refill)
	}
	if res.Method != pipeline.MethodOCR || res.FileType != "text" {
		t.Fatalf("method=%q fileType=%q", res.Method, res.FileType)
	}
	if res.WordCount == 0 || res.CharCount != len([]rune(rxText)) {
		t.Fatalf("counts = %d/%d", res.WordCount, res.CharCount)
	}
}

func TestRouterDocTypeSelectsPatient(t *testing.T) {
	router := newTestRouter(&stubSource{name: "text", exts: []string{".txt"}, text: "Kathy Crawford May 6 1972"}, nil)

	res, err := router.ExtractReader(context.Background(), strings.NewReader("x"), "a.txt", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Record.Kind() != fields.KindPatient {
		t.Fatalf("kind = %q", res.Record.Kind())
	}
}

func TestRouterErrors(t *testing.T) {
	boom := errors.New("tesseract crashed")

	tests := []struct {
		name string
		src  *stubSource
		body string
		file string
		want error
	}{
		{"unsupported", &stubSource{name: "pdf", mts: []string{"application/pdf"}}, "PK\x03\x04", "a.zip", ErrUnsupportedType},
		{"source limit", &stubSource{name: "text", exts: []string{".txt"}, max: 3}, "too long", "a.txt", ErrFileTooLarge},
		{"upload limit", &stubSource{name: "text", exts: []string{".txt"}}, strings.Repeat("a", 2<<20), "a.txt", ErrFileTooLarge},
		{"empty", &stubSource{name: "text", exts: []string{".txt"}}, "", "a.txt", ErrEmptyUpload},
		{"source failure", &stubSource{name: "text", exts: []string{".txt"}, err: boom}, "x", "a.txt", boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(tt.src, nil)
			called := false
			router.SetSuccessHook(func(string, string, int64, time.Duration) { called = true })

			_, err := router.ExtractReader(context.Background(), strings.NewReader(tt.body), tt.file, "patient")
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if called {
				t.Fatalf("success hook must not run on failure")
			}
		})
	}
}

func TestRouterSourceFailureIsExtractionFailure(t *testing.T) {
	router := newTestRouter(&stubSource{name: "text", exts: []string{".txt"}, err: errors.New("boom")}, nil)

	_, err := router.ExtractReader(context.Background(), strings.NewReader("x"), "a.txt", "patient")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("err = %v", err)
	}
}

type rejectAll struct{ err error }

func (r rejectAll) Validate(fields.Record) error { return r.err }

func TestRouterValidatesRecords(t *testing.T) {
	bad := errors.New("schema mismatch")
	router := newTestRouter(&stubSource{name: "text", exts: []string{".txt"}, text: rxText}, rejectAll{bad})

	_, err := router.ExtractText("prescription", rxText)
	if !errors.Is(err, bad) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestRouterExtractText(t *testing.T) {
	router := newTestRouter(&stubSource{name: "text"}, rejectAll{})

	var hookSize int64
	router.SetSuccessHook(func(_, _ string, size int64, _ time.Duration) { hookSize = size })

	res, err := router.ExtractText("pres", rxText)
	if err != nil {
		t.Fatal(err)
	}
	if res.Record.Kind() != fields.KindPrescription || res.Text != rxText {
		t.Fatalf("res = %+v", res)
	}
	if hookSize != int64(len(rxText)) {
		t.Fatalf("hook size = %d", hookSize)
	}
}

func TestTextSourceReadsVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.txt")
	if err := os.WriteFile(path, []byte(rxText), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := TextSource{}.Text(context.Background(), Job{LocalPath: path})
	if err != nil {
		t.Fatal(err)
	}
	if out.Text != rxText || out.TotalPages != 1 {
		t.Fatalf("out = %+v", out)
	}
}

func TestSaveBodyToTempSniffsPDF(t *testing.T) {
	stored, err := SaveBodyToTemp(strings.NewReader("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), "../../etc/scan.pdf", 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	defer stored.Cleanup()

	if stored.MIMEType != "application/pdf" {
		t.Fatalf("mime = %q", stored.MIMEType)
	}
	if filepath.Dir(stored.Path) != stored.TempDir || filepath.Base(stored.Path) != "scan.pdf" {
		t.Fatalf("path %q escaped temp dir %q", stored.Path, stored.TempDir)
	}
	stored.Cleanup()
	if _, err := os.Stat(stored.TempDir); !os.IsNotExist(err) {
		t.Fatalf("temp dir not removed: %v", err)
	}
}
