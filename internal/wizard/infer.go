package wizard

import "strings"

// InferMapping guesses a column mapping from header cell text: a cell that
// matches a field id or label (case and punctuation insensitive) binds that
// column to the field. First match wins per field; unmatched columns come
// back as unmapped.
func InferMapping(t *Type, headerRow []string) map[int]string {
	mapping := make(map[int]string, len(headerRow))
	if t.Feed == nil {
		return mapping
	}

	lookup := make(map[string]string, len(t.Feed.Fields)*2)
	for _, f := range t.Feed.Fields {
		lookup[normalizeHeader(f.ID)] = f.ID
		lookup[normalizeHeader(f.Label)] = f.ID
	}

	taken := make(map[string]bool, len(t.Feed.Fields))
	for col, cell := range headerRow {
		mapping[col] = Unmapped
		fieldID, ok := lookup[normalizeHeader(cell)]
		if !ok || taken[fieldID] {
			continue
		}
		mapping[col] = fieldID
		taken[fieldID] = true
	}
	return mapping
}

func normalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}
