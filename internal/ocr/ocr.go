// Package ocr defines the text-recognition collaborator used by the
// pipeline. The tesseract subpackage provides the production engine.
package ocr

import (
	"context"
	"strings"
)

// Recognizer turns an image into text.
type Recognizer interface {
	RecognizeFile(ctx context.Context, path string) (string, error)
	RecognizeBytes(ctx context.Context, data []byte) (string, error)
}

// CleanOutput trims engine output and folds CRLF line endings.
func CleanOutput(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}
