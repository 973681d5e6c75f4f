// Package poppler inspects and rasterizes PDFs for the OCR pipeline:
// pdfcpu for page counts, pdftotext for embedded text layers and pdftoppm
// for page images.
package poppler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	ErrPasswordProtected = errors.New("PDF is password protected")
	ErrDamaged           = errors.New("PDF appears to be damaged or invalid")
	ErrTimeout           = errors.New("timeout")
)

const maxReasonablePages = 50000

type Config struct {
	PdftotextBinary  string
	PdftoppmBinary   string
	PDFToTextTimeout time.Duration
	RenderTimeout    time.Duration
	DPI              int
}

// Sensible defaults if you pass zeros.
func (c Config) withDefaults() Config {
	out := c
	if out.PdftotextBinary == "" {
		out.PdftotextBinary = "pdftotext"
	}
	if out.PdftoppmBinary == "" {
		out.PdftoppmBinary = "pdftoppm"
	}
	if out.PDFToTextTimeout <= 0 {
		out.PDFToTextTimeout = 10 * time.Second
	}
	if out.RenderTimeout <= 0 {
		out.RenderTimeout = 30 * time.Second
	}
	if out.DPI <= 0 {
		out.DPI = 200
	}
	return out
}

type Tools struct {
	cfg Config
	run Runner
}

// New returns Tools that shell out through run. A nil run uses ExecRunner
// with its default stdout cap.
func New(cfg Config, run Runner) *Tools {
	if run == nil {
		run = ExecRunner{}
	}
	return &Tools{cfg: cfg.withDefaults(), run: run}
}

// PageCount reads the document structure with pdfcpu in relaxed mode.
func (t *Tools) PageCount(pdfPath string) (int, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pctx, err := api.ReadContext(f, conf)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "password") {
			return 0, ErrPasswordProtected
		}
		return 0, fmt.Errorf("%w: %v", ErrDamaged, err)
	}
	if err := pctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDamaged, err)
	}
	return validatePages(pctx.PageCount)
}

// TextForPage extracts the embedded text layer of one page.
func (t *Tools) TextForPage(ctx context.Context, pdfPath string, page int) (string, error) {
	if page < 1 {
		return "", fmt.Errorf("invalid page number: %d (must be >= 1)", page)
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.PDFToTextTimeout)
	defer cancel()

	stdout, stderr, err := t.run.Run(ctx, t.cfg.PdftotextBinary,
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-layout",
		"-nopgbrk",
		"-enc", "UTF-8",
		pdfPath,
		"-",
	)
	if err != nil {
		return "", classify("pdftotext", page, ctx, err, string(stderr))
	}
	return string(stdout), nil
}

// RenderPage rasterizes one page to a grayscale PNG in outDir and returns
// its path.
func (t *Tools) RenderPage(ctx context.Context, pdfPath string, page int, outDir string) (string, error) {
	if page < 1 {
		return "", fmt.Errorf("invalid page number: %d (must be >= 1)", page)
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.RenderTimeout)
	defer cancel()

	prefix := filepath.Join(outDir, fmt.Sprintf("page-%04d", page))
	_, stderr, err := t.run.Run(ctx, t.cfg.PdftoppmBinary,
		"-r", strconv.Itoa(t.cfg.DPI),
		"-gray",
		"-png",
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-singlefile",
		pdfPath,
		prefix,
	)
	if err != nil {
		return "", classify("pdftoppm", page, ctx, err, string(stderr))
	}

	out := prefix + ".png"
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("pdftoppm page %d produced no image: %w", page, err)
	}
	return out, nil
}

// --- internals ---

func validatePages(count int) (int, error) {
	if count <= 0 || count > maxReasonablePages {
		return 0, fmt.Errorf("%w: unreasonable page count %d", ErrDamaged, count)
	}
	return count, nil
}

// isHelpOrUsageOutput returns true when stderr looks like a poppler
// usage / help dump rather than an actual processing error.
func isHelpOrUsageOutput(stderr string) bool {
	return strings.Contains(stderr, "version ") && strings.Contains(stderr, "Usage:")
}

func classify(tool string, page int, ctx context.Context, err error, stderr string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s %w on page %d", tool, ErrTimeout, page)
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%s canceled: %w", tool, context.Canceled)
	}
	if errors.Is(err, ErrOutputLimit) {
		return fmt.Errorf("%s output too large on page %d: %w", tool, page, err)
	}

	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return fmt.Errorf("%s page %d failed: %w", tool, page, err)
	}

	// match exact poppler messages, not words that also appear in --help
	switch {
	case isHelpOrUsageOutput(stderr):
		logPopplerErr(tool, stderr, page)
		return fmt.Errorf("%s page %d failed (bad invocation)", tool, page)
	case containsAny(stderr, "Incorrect password", "Command Line Error: Incorrect password"):
		logPopplerErr(tool, stderr, page)
		return ErrPasswordProtected
	case containsAny(stderr, "PDF file is damaged", "Syntax Error", "Couldn't find trailer dictionary", "May not be a PDF file"):
		logPopplerErr(tool, stderr, page)
		return ErrDamaged
	case strings.Contains(stderr, "I/O Error") && strings.Contains(stderr, "Couldn't open file"):
		logPopplerErr(tool, stderr, page)
		return fmt.Errorf("%s: unable to open PDF", tool)
	}
	return fmt.Errorf("%s page %d failed: %s", tool, page, truncate(stderr, 300))
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func logPopplerErr(tool, stderr string, page int) {
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		return
	}
	slog.Warn("poppler error", "tool", tool, "page", page, "stderr", truncate(msg, 500))
}
