package extract

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/toricodesthings/medscan-service/internal/fields"
	"github.com/toricodesthings/medscan-service/internal/pipeline"
)

// RecordValidator checks an extracted record before it leaves the router.
type RecordValidator interface {
	Validate(rec fields.Record) error
}

type SuccessHook func(docType, fileType string, fileSize int64, duration time.Duration)

type Router struct {
	registry       *Registry
	maxUploadBytes int64
	validator      RecordValidator

	hookMu sync.RWMutex
	hook   SuccessHook
}

// NewRouter builds a router over registry. validator may be nil to skip
// record validation.
func NewRouter(registry *Registry, maxUploadBytes int64, validator RecordValidator) *Router {
	return &Router{registry: registry, maxUploadBytes: maxUploadBytes, validator: validator}
}

// Sources names the registered sources.
func (r *Router) Sources() []string {
	return r.registry.Names()
}

func (r *Router) SetSuccessHook(hook SuccessHook) {
	r.hookMu.Lock()
	r.hook = hook
	r.hookMu.Unlock()
}

// ExtractReader stores body in a temp dir, extracts it and removes it.
func (r *Router) ExtractReader(ctx context.Context, body io.Reader, fileName, docType string) (Result, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		fileName = "input.bin"
	}

	stored, err := SaveBodyToTemp(body, fileName, r.maxUploadBytes)
	if err != nil {
		return Result{}, err
	}
	defer stored.Cleanup()

	return r.Extract(ctx, Job{
		LocalPath: stored.Path,
		FileName:  fileName,
		MIMEType:  stored.MIMEType,
		FileSize:  stored.Size,
		DocType:   docType,
	})
}

// Extract turns a stored file into a record of the kind docType selects.
func (r *Router) Extract(ctx context.Context, job Job) (Result, error) {
	start := time.Now()

	ext := strings.ToLower(filepath.Ext(job.FileName))
	src, err := r.registry.Resolve(job.MIMEType, ext)
	if err != nil {
		return Result{MIMEType: job.MIMEType, FileType: "unknown"}, err
	}

	if max := src.MaxFileSize(); max > 0 && job.FileSize > max {
		return Result{MIMEType: job.MIMEType, FileType: src.Name()},
			fmt.Errorf("%w: %s limit is %dMB", ErrFileTooLarge, src.Name(), max/(1<<20))
	}

	out, err := src.Text(ctx, job)
	if err != nil {
		return Result{MIMEType: job.MIMEType, FileType: src.Name()}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	res, err := r.finish(job.DocType, out)
	res.FileType = src.Name()
	res.MIMEType = job.MIMEType
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}

	r.notify(job.DocType, src.Name(), job.FileSize, res.Duration)
	return res, nil
}

// ExtractText runs the field extractors over text that was recognized
// elsewhere.
func (r *Router) ExtractText(docType, text string) (Result, error) {
	start := time.Now()
	res, err := r.finish(docType, pipeline.Output{
		Text:       text,
		TotalPages: 1,
		Pages:      []pipeline.PageText{{Number: 1, Method: pipeline.MethodTextLayer, WordCount: len(strings.Fields(text)), Text: text}},
	})
	res.FileType = "text"
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}
	r.notify(docType, res.FileType, int64(len(text)), res.Duration)
	return res, nil
}

func (r *Router) finish(docType string, out pipeline.Output) (Result, error) {
	rec := fields.ForDocType(docType).Extract(out.Text)

	res := Result{
		Record:     rec,
		Text:       out.Text,
		Method:     out.Method(),
		Pages:      out.Pages,
		TotalPages: out.TotalPages,
	}
	res.WordCount, res.CharCount = BuildCounts(out.Text)

	if r.validator != nil {
		if err := r.validator.Validate(rec); err != nil {
			return res, fmt.Errorf("record failed validation: %w", err)
		}
	}
	return res, nil
}

func (r *Router) notify(docType, fileType string, size int64, d time.Duration) {
	r.hookMu.RLock()
	hook := r.hook
	r.hookMu.RUnlock()
	if hook != nil {
		hook(string(fields.KindForDocType(docType)), fileType, size, d)
	}
}
