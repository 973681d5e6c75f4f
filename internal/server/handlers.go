package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"strings"

	"github.com/toricodesthings/medscan-service/internal/export"
	"github.com/toricodesthings/medscan-service/internal/extract"
	"github.com/toricodesthings/medscan-service/internal/pipeline"
	"github.com/toricodesthings/medscan-service/internal/poppler"
)

// multipart framing allowance on top of the file itself
const multipartOverhead = 1 << 20

type textRequest struct {
	DocType string  `json:"docType"`
	Text    *string `json:"text"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	active := s.metrics.active()
	status := "healthy"
	code := http.StatusOK

	ratio := s.cfg.HealthDegradeRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 0.9
	}

	if active >= int64(float64(s.cfg.MaxConcurrentRequests)*ratio) {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":  status,
		"active":  active,
		"sources": s.router.Sources(),
		"version": version,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	writeJSON(w, http.StatusOK, map[string]any{
		"requests":   s.metrics.snapshot(),
		"goroutines": runtime.NumGoroutine(),
		"memAllocMB": m.Alloc / (1 << 20),
		"memSysMB":   m.Sys / (1 << 20),
	})
}

// handleExtract accepts a multipart upload with a "file" part and a
// "doc_type" field and answers with the extracted record.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeErr(w, http.StatusRequestEntityTooLarge, "file_too_large", "Upload exceeds size limit")
			return
		}
		writeErr(w, http.StatusBadRequest, "bad_request", sanitizeError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	docType := strings.TrimSpace(r.FormValue("doc_type"))
	if docType == "" {
		writeErr(w, http.StatusBadRequest, "validation_failed", "doc_type required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", "file required")
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ExtractTimeout)
	defer cancel()

	res, err := s.router.ExtractReader(ctx, file, header.Filename, docType)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, r, res)
}

// handleExtractText runs the field extractors over already recognized text.
func (s *Server) handleExtractText(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[textRequest](r, s.cfg.MaxJSONBodyBytes)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", sanitizeError(err))
		return
	}
	// null or missing text reads as an empty transcript
	var text string
	if req.Text != nil {
		text = *req.Text
	}
	if s.cfg.MaxTextBytes > 0 && int64(len(text)) > s.cfg.MaxTextBytes {
		writeErr(w, http.StatusRequestEntityTooLarge, "file_too_large", "text exceeds size limit")
		return
	}

	res, err := s.router.ExtractText(req.DocType, text)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respond(w, r, res)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, res extract.Result) {
	q := r.URL.Query()

	if strings.EqualFold(q.Get("format"), "xlsx") {
		var buf bytes.Buffer
		if err := export.WriteXLSX(&buf, res.Record); err != nil {
			s.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, res.Record.Kind()))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
		return
	}

	if v, _ := strconv.ParseBool(q.Get("verbose")); v {
		writeJSON(w, http.StatusOK, res)
		return
	}
	writeJSON(w, http.StatusOK, res.Record)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.metrics.incFailures()
	status, code, msg := classifyError(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("extraction failed", "request_id", RequestID(r.Context()), "code", code, "error", err)
	} else {
		s.log.Warn("extraction rejected", "request_id", RequestID(r.Context()), "code", code, "error", err)
	}
	writeErr(w, status, code, msg)
}

// classifyError maps router errors onto an HTTP status, a stable error code
// and a client-safe message.
func classifyError(err error) (int, string, string) {
	switch {
	case errors.Is(err, extract.ErrEmptyUpload):
		return http.StatusBadRequest, "bad_request", "uploaded file is empty"
	case errors.Is(err, extract.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "file_too_large", sanitizeError(err)
	case errors.Is(err, extract.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, "unsupported_type", sanitizeError(err)
	case errors.Is(err, pipeline.ErrTooManyPages):
		return http.StatusBadRequest, "too_many_pages", cause(err)
	case errors.Is(err, poppler.ErrPasswordProtected):
		return http.StatusUnprocessableEntity, "invalid_pdf", poppler.ErrPasswordProtected.Error()
	case errors.Is(err, poppler.ErrDamaged):
		return http.StatusUnprocessableEntity, "invalid_pdf", poppler.ErrDamaged.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout", "extraction timed out"
	case errors.Is(err, extract.ErrExtractionFailed):
		return http.StatusInternalServerError, "ocr_failed", "OCR failed: " + cause(err)
	}
	return http.StatusInternalServerError, "internal_error", "Internal server error"
}

// cause drops the router's generic extraction prefix from err's message.
func cause(err error) string {
	return sanitizeError(errors.New(strings.TrimPrefix(err.Error(), extract.ErrExtractionFailed.Error()+": ")))
}
