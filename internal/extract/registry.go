package extract

import (
	"fmt"
	"strings"
)

type Registry struct {
	byMIME      map[string]Source
	byExtension map[string]Source
	sources     []Source
}

func NewRegistry() *Registry {
	return &Registry{
		byMIME:      make(map[string]Source),
		byExtension: make(map[string]Source),
		sources:     make([]Source, 0),
	}
}

func (r *Registry) Register(s Source) {
	r.sources = append(r.sources, s)
	for _, mt := range s.SupportedTypes() {
		key := strings.ToLower(strings.TrimSpace(mt))
		if key != "" {
			r.byMIME[key] = s
		}
	}
	for _, ext := range s.SupportedExtensions() {
		key := strings.ToLower(strings.TrimSpace(ext))
		if key != "" {
			r.byExtension[key] = s
		}
	}
}

// Resolve picks a source by extension first, then by MIME type with and
// without parameters, then any text/* type as plain text.
func (r *Registry) Resolve(mimeType, extension string) (Source, error) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	ext := strings.ToLower(strings.TrimSpace(extension))

	if s, ok := r.byExtension[ext]; ok {
		return s, nil
	}

	if s, ok := r.byMIME[mt]; ok {
		return s, nil
	}

	if i := strings.Index(mt, ";"); i > 0 {
		if s, ok := r.byMIME[strings.TrimSpace(mt[:i])]; ok {
			return s, nil
		}
	}

	if strings.HasPrefix(mt, "text/") {
		if s, ok := r.byMIME["text/plain"]; ok {
			return s, nil
		}
	}

	return nil, fmt.Errorf("%w: mime=%q extension=%q", ErrUnsupportedType, mimeType, extension)
}

// Names lists registered sources in registration order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.sources))
	for _, s := range r.sources {
		out = append(out, s.Name())
	}
	return out
}
