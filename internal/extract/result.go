package extract

import (
	"errors"
	"time"

	"github.com/toricodesthings/medscan-service/internal/fields"
	"github.com/toricodesthings/medscan-service/internal/pipeline"
)

var (
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrFileTooLarge     = errors.New("file too large")
	ErrEmptyUpload      = errors.New("empty upload")
	ErrExtractionFailed = errors.New("text extraction failed")
)

type Job struct {
	LocalPath string
	FileName  string
	MIMEType  string
	FileSize  int64
	DocType   string
}

type Result struct {
	Record     fields.Record       `json:"record"`
	Text       string              `json:"text"`
	Method     pipeline.Method     `json:"method"`
	FileType   string              `json:"fileType"`
	MIMEType   string              `json:"mimeType,omitempty"`
	Pages      []pipeline.PageText `json:"pages,omitempty"`
	TotalPages int                 `json:"totalPages"`
	WordCount  int                 `json:"wordCount"`
	CharCount  int                 `json:"charCount"`
	Duration   time.Duration       `json:"-"`
}

func BuildCounts(text string) (wordCount int, charCount int) {
	charCount = len([]rune(text))
	wordCount = 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
			if inWord {
				wordCount++
				inWord = false
			}
			continue
		}
		inWord = true
	}
	if inWord {
		wordCount++
	}
	return
}
