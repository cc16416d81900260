package inbox

import (
	"sort"
	"strings"
)

// Filter is the active view criteria. The zero value matches everything.
type Filter struct {
	// Category must equal the email's category; empty or "all" disables
	// the category filter.
	Category string

	// Search is a case-insensitive substring matched against sender,
	// subject and body; matching any of the three satisfies the filter.
	Search string
}

// Matches reports whether e passes the filter.
func (f Filter) Matches(e Email) bool {
	if f.Category != "" && f.Category != CategoryAll && e.Category != f.Category {
		return false
	}
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(e.Sender), q) ||
		strings.Contains(strings.ToLower(e.Subject), q) ||
		strings.Contains(strings.ToLower(e.Body), q)
}

// Apply filters emails, then sorts the survivors by order. The input
// slice is not modified. Ties are broken by id so the ordering is total:
// newest and oldest are exact reverses of each other.
func Apply(emails []Email, f Filter, order SortOrder) []Email {
	out := make([]Email, 0, len(emails))
	for _, e := range emails {
		if f.Matches(e) {
			out = append(out, e)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch order {
		case SortOldest:
			if a.Timestamp != b.Timestamp {
				return a.Timestamp < b.Timestamp
			}
			return a.ID < b.ID
		case SortSender:
			if a.Sender != b.Sender {
				return a.Sender < b.Sender
			}
			return a.ID < b.ID
		default: // SortNewest
			if a.Timestamp != b.Timestamp {
				return a.Timestamp > b.Timestamp
			}
			return a.ID > b.ID
		}
	})
	return out
}
