// Package pipeline turns uploaded documents into plain text: embedded text
// layers where they are usable, OCR of rendered pages everywhere else.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/toricodesthings/medscan-service/internal/ocr"
)

var ErrTooManyPages = errors.New("document has too many pages")

type Method string

const (
	MethodTextLayer Method = "text-layer"
	MethodOCR       Method = "ocr"
)

// PageSource is the PDF side of the pipeline; *poppler.Tools satisfies it.
type PageSource interface {
	PageCount(pdfPath string) (int, error)
	TextForPage(ctx context.Context, pdfPath string, page int) (string, error)
	RenderPage(ctx context.Context, pdfPath string, page int, outDir string) (string, error)
}

type Options struct {
	MaxPages          int
	MaxPageWorkers    int
	MinWordsThreshold int
	PreferTextLayer   bool
}

type PageText struct {
	Number    int    `json:"page"`
	Method    Method `json:"method"`
	WordCount int    `json:"wordCount"`
	Text      string `json:"-"`
}

type Output struct {
	Text       string     `json:"-"`
	Pages      []PageText `json:"pages"`
	TotalPages int        `json:"totalPages"`
}

// Method reports "ocr" when any page needed recognition.
func (o Output) Method() Method {
	for _, p := range o.Pages {
		if p.Method == MethodOCR {
			return MethodOCR
		}
	}
	return MethodTextLayer
}

type Processor struct {
	pdf  PageSource
	ocr  ocr.Recognizer
	opts Options
}

func New(pdf PageSource, rec ocr.Recognizer, opts Options) *Processor {
	return &Processor{pdf: pdf, ocr: rec, opts: opts}
}

// PDFText produces the text of every page, in page order, joined by a
// newline. A single failed page fails the whole document.
func (p *Processor) PDFText(ctx context.Context, pdfPath string) (Output, error) {
	totalPages, err := p.pdf.PageCount(pdfPath)
	if err != nil {
		return Output{}, fmt.Errorf("page count failed: %w", err)
	}
	if p.opts.MaxPages > 0 && totalPages > p.opts.MaxPages {
		return Output{}, fmt.Errorf("%w: %d (max %d)", ErrTooManyPages, totalPages, p.opts.MaxPages)
	}

	workDir, err := os.MkdirTemp("", "medscan-pages-*")
	if err != nil {
		return Output{}, fmt.Errorf("create render dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	pages := make([]PageText, totalPages)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers(totalPages))
	for i := range pages {
		page := i + 1
		g.Go(func() error {
			pt, err := p.extractSinglePage(gctx, pdfPath, page, workDir)
			if err != nil {
				return err
			}
			pages[page-1] = pt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Output{}, err
	}

	parts := make([]string, len(pages))
	for i, pt := range pages {
		parts[i] = pt.Text
	}
	return Output{
		Text:       strings.Join(parts, "\n"),
		Pages:      pages,
		TotalPages: totalPages,
	}, nil
}

// ImageText recognizes a single image file.
func (p *Processor) ImageText(ctx context.Context, imagePath string) (Output, error) {
	text, err := p.ocr.RecognizeFile(ctx, imagePath)
	if err != nil {
		return Output{}, fmt.Errorf("OCR failed: %w", err)
	}
	text = cleanText(text)
	return Output{
		Text:       text,
		Pages:      []PageText{{Number: 1, Method: MethodOCR, WordCount: countWords(text), Text: text}},
		TotalPages: 1,
	}, nil
}

// ---------- Internal ----------

func (p *Processor) workers(pages int) int {
	workers := runtime.NumCPU()
	if p.opts.MaxPageWorkers > 0 && workers > p.opts.MaxPageWorkers {
		workers = p.opts.MaxPageWorkers
	}
	if workers > pages {
		workers = pages
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

func (p *Processor) extractSinglePage(ctx context.Context, pdfPath string, page int, workDir string) (PageText, error) {
	if p.opts.PreferTextLayer {
		// a broken text layer is not fatal; the page still gets OCR
		if text, err := p.pdf.TextForPage(ctx, pdfPath, page); err == nil {
			text = cleanText(text)
			if n := countWords(text); n >= p.opts.MinWordsThreshold && n > 0 {
				return PageText{Number: page, Method: MethodTextLayer, WordCount: n, Text: text}, nil
			}
		}
	}

	img, err := p.pdf.RenderPage(ctx, pdfPath, page, workDir)
	if err != nil {
		return PageText{}, fmt.Errorf("render page %d: %w", page, err)
	}
	defer os.Remove(img)

	text, err := p.ocr.RecognizeFile(ctx, img)
	if err != nil {
		return PageText{}, fmt.Errorf("OCR failed on page %d: %w", page, err)
	}
	text = cleanText(text)
	return PageText{Number: page, Method: MethodOCR, WordCount: countWords(text), Text: text}, nil
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	text = strings.Map(func(r rune) rune {
		switch r {
		case '\u200B', '\u200C', '\u200D', '\uFEFF':
			return -1
		case '\u00A0':
			return ' '
		case '\u00AD':
			return -1
		default:
			return r
		}
	}, text)

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	consecutiveEmpty := 0

	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			consecutiveEmpty++
			if consecutiveEmpty <= 2 {
				cleaned = append(cleaned, "")
			}
			continue
		}
		consecutiveEmpty = 0
		cleaned = append(cleaned, line)
	}

	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}
