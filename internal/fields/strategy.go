package fields

// strategy is one attempt at resolving a field. It reports false when it
// could not produce a usable value.
type strategy[T any] func(doc *Document) (T, bool)

// firstOf runs the strategies in order and returns the first success.
func firstOf[T any](doc *Document, strategies ...strategy[T]) (T, bool) {
	for _, s := range strategies {
		if v, ok := s(doc); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// resolveString runs a string cascade and converts failure into absence.
func resolveString(doc *Document, strategies ...strategy[string]) *string {
	v, ok := firstOf(doc, strategies...)
	if !ok {
		return nil
	}
	return optional(v)
}

// nonEmpty adapts a plain string result: empty means the attempt failed.
func nonEmpty(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	return s, true
}
