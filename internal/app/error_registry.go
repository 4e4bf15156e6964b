package app

// ErrorRegistry remembers error texts already reported to the operator so
// that a recurring failure is announced once per process lifetime.
//
// With limit 0 the registry grows without bound; distinct error texts are
// few in practice. A positive limit evicts the oldest text first, after
// which that error may be reported again.
type ErrorRegistry struct {
	limit int
	seen  map[string]struct{}
	order []string
}

func NewErrorRegistry(limit int) *ErrorRegistry {
	if limit < 0 {
		limit = 0
	}
	return &ErrorRegistry{
		limit: limit,
		seen:  make(map[string]struct{}),
	}
}

// Seen reports whether text was already added.
func (r *ErrorRegistry) Seen(text string) bool {
	_, ok := r.seen[text]
	return ok
}

// Add records text as reported.
func (r *ErrorRegistry) Add(text string) {
	if r.Seen(text) {
		return
	}
	r.seen[text] = struct{}{}
	r.order = append(r.order, text)

	if r.limit > 0 && len(r.order) > r.limit {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.seen, oldest)
	}
}

// Len returns the number of remembered texts.
func (r *ErrorRegistry) Len() int {
	return len(r.order)
}
