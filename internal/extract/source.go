package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/toricodesthings/medscan-service/internal/pipeline"
)

// Source turns one kind of stored file into text.
type Source interface {
	Text(ctx context.Context, job Job) (pipeline.Output, error)
	SupportedTypes() []string
	SupportedExtensions() []string
	Name() string
	MaxFileSize() int64
}

// DocumentReader is the pipeline as seen by sources; *pipeline.Processor
// satisfies it.
type DocumentReader interface {
	PDFText(ctx context.Context, pdfPath string) (pipeline.Output, error)
	ImageText(ctx context.Context, imagePath string) (pipeline.Output, error)
}

type PDFSource struct {
	Reader  DocumentReader
	MaxSize int64
}

func (s PDFSource) Text(ctx context.Context, job Job) (pipeline.Output, error) {
	return s.Reader.PDFText(ctx, job.LocalPath)
}
func (s PDFSource) SupportedTypes() []string      { return []string{"application/pdf", "application/x-pdf"} }
func (s PDFSource) SupportedExtensions() []string { return []string{".pdf"} }
func (s PDFSource) Name() string                  { return "pdf" }
func (s PDFSource) MaxFileSize() int64            { return s.MaxSize }

type ImageSource struct {
	Reader  DocumentReader
	MaxSize int64
}

func (s ImageSource) Text(ctx context.Context, job Job) (pipeline.Output, error) {
	return s.Reader.ImageText(ctx, job.LocalPath)
}

func (s ImageSource) SupportedTypes() []string {
	return []string{"image/png", "image/jpeg", "image/tiff", "image/bmp", "image/x-ms-bmp", "image/gif", "image/webp"}
}

func (s ImageSource) SupportedExtensions() []string {
	return []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".gif", ".webp"}
}
func (s ImageSource) Name() string       { return "image" }
func (s ImageSource) MaxFileSize() int64 { return s.MaxSize }

// TextSource accepts text that was recognized elsewhere and passes it
// through unchanged.
type TextSource struct {
	MaxSize int64
}

func (s TextSource) Text(ctx context.Context, job Job) (pipeline.Output, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Output{}, err
	}
	b, err := os.ReadFile(job.LocalPath)
	if err != nil {
		return pipeline.Output{}, fmt.Errorf("read text: %w", err)
	}
	text := string(b)
	return pipeline.Output{
		Text: text,
		Pages: []pipeline.PageText{{
			Number:    1,
			Method:    pipeline.MethodTextLayer,
			WordCount: len(strings.Fields(text)),
			Text:      text,
		}},
		TotalPages: 1,
	}, nil
}
func (s TextSource) SupportedTypes() []string      { return []string{"text/plain"} }
func (s TextSource) SupportedExtensions() []string { return []string{".txt"} }
func (s TextSource) Name() string                  { return "text" }
func (s TextSource) MaxFileSize() int64            { return s.MaxSize }
