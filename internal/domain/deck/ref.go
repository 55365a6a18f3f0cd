package deck

import "strings"

// ParseRef extracts a deck id from a caller-supplied reference. References
// are either a raw id or a catalog URL whose path contains /decks/<id>.
func ParseRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	marker := "/decks/"
	idx := strings.LastIndex(ref, marker)
	if idx < 0 {
		return ref
	}

	id := ref[idx+len(marker):]
	if cut := strings.IndexAny(id, "/?#"); cut >= 0 {
		id = id[:cut]
	}
	return id
}
