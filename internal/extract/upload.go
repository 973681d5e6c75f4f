package extract

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type StoredFile struct {
	TempDir  string
	Path     string
	MIMEType string
	Size     int64
}

func (d StoredFile) Cleanup() {
	if d.TempDir != "" {
		_ = os.RemoveAll(d.TempDir)
	}
}

// SaveBodyToTemp writes an io.Reader (e.g. a multipart file part) to a temp
// file and sniffs its MIME type.
func SaveBodyToTemp(body io.Reader, fileName string, maxBytes int64) (StoredFile, error) {
	tmpDir, err := os.MkdirTemp("", "medscan-*")
	if err != nil {
		return StoredFile{}, fmt.Errorf("temp dir: %w", err)
	}

	safeName := strings.TrimSpace(fileName)
	if safeName == "" {
		safeName = "input.bin"
	}
	outPath := filepath.Join(tmpDir, filepath.Base(safeName))

	f, err := os.Create(outPath)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return StoredFile{}, fmt.Errorf("create: %w", err)
	}
	defer f.Close()

	lr := &io.LimitedReader{R: body, N: maxBytes + 1}
	n, err := io.Copy(f, lr)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return StoredFile{}, fmt.Errorf("write: %w", err)
	}
	if n > maxBytes {
		_ = os.RemoveAll(tmpDir)
		return StoredFile{}, fmt.Errorf("%w: limit is %dMB", ErrFileTooLarge, maxBytes/(1<<20))
	}
	if n == 0 {
		_ = os.RemoveAll(tmpDir)
		return StoredFile{}, ErrEmptyUpload
	}

	if err := f.Sync(); err != nil {
		_ = os.RemoveAll(tmpDir)
		return StoredFile{}, fmt.Errorf("sync: %w", err)
	}

	return StoredFile{
		TempDir:  tmpDir,
		Path:     outPath,
		MIMEType: DetectMIME(outPath),
		Size:     n,
	}, nil
}

// DetectMIME sniffs a file's content type, falling back to net/http's
// sniffer when mimetype cannot read it.
func DetectMIME(path string) string {
	m, err := mimetype.DetectFile(path)
	if err == nil && m != nil {
		return strings.ToLower(strings.TrimSpace(m.String()))
	}

	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	if n <= 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(http.DetectContentType(buf[:n])))
}
