package deal

import (
	"strings"

	"github.com/dealdesk/dealdesk/internal/model"
)

// Filter derives the visible deal set from the raw collection and the two
// view controls. It is pure and re-derivable at any time from current state.
//
// Archived deals are excluded unless showArchived. A non-empty query (after
// trimming) keeps only deals where title, company, or any contact field
// contains it as a case-insensitive substring.
func Filter(deals []model.Deal, query string, showArchived bool) []model.Deal {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]model.Deal, 0, len(deals))
	for _, d := range deals {
		if !showArchived && d.Archived {
			continue
		}
		if q != "" && !matches(&d, q) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func matches(d *model.Deal, q string) bool {
	for _, s := range []string{d.Title, d.Company, d.Contact.Name, d.Contact.Email, d.Contact.Phone} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}
