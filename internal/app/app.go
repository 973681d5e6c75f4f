// Package app assembles the extraction router from configuration. Both the
// HTTP server and the CLI build on it.
package app

import (
	"fmt"

	"github.com/toricodesthings/medscan-service/internal/config"
	"github.com/toricodesthings/medscan-service/internal/extract"
	"github.com/toricodesthings/medscan-service/internal/ocr"
	"github.com/toricodesthings/medscan-service/internal/ocr/tesseract"
	"github.com/toricodesthings/medscan-service/internal/pipeline"
	"github.com/toricodesthings/medscan-service/internal/poppler"
	"github.com/toricodesthings/medscan-service/internal/schema"
)

func NewRouter(cfg config.Config) (*extract.Router, error) {
	pdf := poppler.New(poppler.Config{
		PdftotextBinary:  cfg.PdftotextBinary,
		PdftoppmBinary:   cfg.PdftoppmBinary,
		PDFToTextTimeout: cfg.PDFToTextTimeout,
		RenderTimeout:    cfg.RenderTimeout,
		DPI:              cfg.RenderDPI,
	}, poppler.ExecRunner{MaxStdout: cfg.MaxTextBytes})

	engine := ocr.Limit(tesseract.New(tesseract.Config{
		Language:       cfg.OCRLanguage,
		PageSegMode:    cfg.OCRPageSegMode,
		TessdataPrefix: cfg.TessdataPrefix,
	}), cfg.MaxOCRConcurrent)

	proc := pipeline.New(pdf, engine, pipeline.Options{
		MaxPages:          cfg.MaxPages,
		MaxPageWorkers:    cfg.MaxPageWorkers,
		MinWordsThreshold: cfg.MinWordsThreshold,
		PreferTextLayer:   cfg.PreferTextLayer,
	})

	registry := extract.NewRegistry()
	registry.Register(extract.PDFSource{Reader: proc, MaxSize: cfg.MaxPDFBytes})
	registry.Register(extract.ImageSource{Reader: proc, MaxSize: cfg.MaxImageBytes})
	registry.Register(extract.TextSource{MaxSize: cfg.MaxTextBytes})

	var validator extract.RecordValidator
	if cfg.ValidateRecords {
		v, err := schema.New()
		if err != nil {
			return nil, fmt.Errorf("load record schemas: %w", err)
		}
		validator = v
	}

	return extract.NewRouter(registry, cfg.MaxUploadBytes, validator), nil
}
