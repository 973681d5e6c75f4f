// Package tesseract recognizes text with the Tesseract engine via gosseract.
//
// It requires Tesseract and Leptonica to be installed on the system. On
// Ubuntu/Debian:
//
//	apt-get install tesseract-ocr libtesseract-dev libleptonica-dev
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/toricodesthings/medscan-service/internal/ocr"
)

type Config struct {
	// Language is one or more "+" separated tesseract languages. Default "eng".
	Language string
	// PageSegMode follows tesseract's --psm numbering. Default 3 (fully automatic).
	PageSegMode int
	// TessdataPrefix overrides the tessdata directory when set.
	TessdataPrefix string
}

// Engine creates one gosseract client per call; clients are not safe for
// concurrent use.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.PageSegMode <= 0 {
		cfg.PageSegMode = int(gosseract.PSM_AUTO)
	}
	return &Engine{cfg: cfg}
}

func (e *Engine) RecognizeFile(ctx context.Context, path string) (string, error) {
	return e.recognize(ctx, func(c *gosseract.Client) error { return c.SetImage(path) })
}

func (e *Engine) RecognizeBytes(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty image")
	}
	return e.recognize(ctx, func(c *gosseract.Client) error { return c.SetImageFromBytes(data) })
}

func (e *Engine) recognize(ctx context.Context, setImage func(*gosseract.Client) error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if e.cfg.TessdataPrefix != "" {
		client.TessdataPrefix = e.cfg.TessdataPrefix
	}
	if err := client.SetLanguage(e.cfg.Language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(e.cfg.PageSegMode)); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := setImage(client); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return ocr.CleanOutput(text), nil
}

var _ ocr.Recognizer = (*Engine)(nil)
