package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/toricodesthings/medscan-service/internal/pipeline"
)

type stubSource struct {
	name string
	mts  []string
	exts []string
	max  int64
	text string
	err  error
}

func (s *stubSource) Text(ctx context.Context, job Job) (pipeline.Output, error) {
	if s.err != nil {
		return pipeline.Output{}, s.err
	}
	return pipeline.Output{
		Text:       s.text,
		Pages:      []pipeline.PageText{{Number: 1, Method: pipeline.MethodOCR, Text: s.text}},
		TotalPages: 1,
	}, nil
}
func (s *stubSource) SupportedTypes() []string      { return s.mts }
func (s *stubSource) SupportedExtensions() []string { return s.exts }
func (s *stubSource) Name() string                  { return s.name }
func (s *stubSource) MaxFileSize() int64            { return s.max }

func TestResolvePrefersExtension(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubSource{name: "text", mts: []string{"text/plain"}, exts: []string{".txt"}})
	r.Register(&stubSource{name: "pdf", mts: []string{"application/pdf"}, exts: []string{".pdf"}})

	s, err := r.Resolve("text/plain", ".PDF")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if s.Name() != "pdf" {
		t.Fatalf("expected pdf source, got %q", s.Name())
	}
}

func TestResolveFallbacks(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubSource{name: "text", mts: []string{"text/plain"}})
	r.Register(&stubSource{name: "image", mts: []string{"image/png"}})

	cases := map[string]string{
		"image/png":                 "image",
		"image/png; charset=binary": "image",
		"text/plain; charset=utf-8": "text",
		"text/csv":                  "text",
	}
	for mt, want := range cases {
		s, err := r.Resolve(mt, ".bin")
		if err != nil {
			t.Fatalf("Resolve(%q): %v", mt, err)
		}
		if s.Name() != want {
			t.Fatalf("Resolve(%q) = %q, want %q", mt, s.Name(), want)
		}
	}
}

func TestResolveUnsupported(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubSource{name: "text", mts: []string{"text/plain"}})

	if _, err := r.Resolve("application/zip", ".zip"); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
}

func TestDefaultSourcesResolve(t *testing.T) {
	r := NewRegistry()
	r.Register(PDFSource{})
	r.Register(ImageSource{})
	r.Register(TextSource{})

	cases := map[[2]string]string{
		{"application/pdf", ""}:              "pdf",
		{"image/jpeg", ""}:                   "image",
		{"", ".tiff"}:                        "image",
		{"application/octet-stream", ".txt"}: "text",
	}
	for in, want := range cases {
		s, err := r.Resolve(in[0], in[1])
		if err != nil || s.Name() != want {
			t.Fatalf("Resolve(%q, %q) = %v, %v; want %s", in[0], in[1], s, err, want)
		}
	}
	if got := r.Names(); len(got) != 3 || got[0] != "pdf" {
		t.Fatalf("Names = %v", got)
	}
}
