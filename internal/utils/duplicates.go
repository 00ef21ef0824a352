package utils

// TextFilter drops repeated candidate texts. It is not safe for concurrent
// use; each search owns its own filter.
type TextFilter struct {
	seen map[string]struct{}
}

// NewTextFilter creates a filter that has seen nothing.
func NewTextFilter() *TextFilter {
	return &TextFilter{seen: make(map[string]struct{})}
}

// Include reports whether text is new and records it.
func (f *TextFilter) Include(text string) bool {
	if _, ok := f.seen[text]; ok {
		return false
	}
	f.seen[text] = struct{}{}
	return true
}

// Len returns the number of distinct texts recorded.
func (f *TextFilter) Len() int {
	return len(f.seen)
}
