package query

import (
	"fmt"
	"strings"

	"github.com/querystack/relfeed/internal/domain"
)

// ScoreField is the pseudo-field that sorts by relevance score.
const ScoreField = "score"

// SortField is one component of a sort specification.
type SortField struct {
	Field string
	Desc  bool
}

// ParseSort parses a sort specification of the form
// "field [asc|desc], field [asc|desc], ...". Empty input returns the
// default ordering: score descending.
func ParseSort(s string) ([]SortField, error) {
	if strings.TrimSpace(s) == "" {
		return []SortField{{Field: ScoreField, Desc: true}}, nil
	}

	parts := strings.Split(s, ",")
	sorts := make([]SortField, 0, len(parts))
	for _, part := range parts {
		fields := strings.Fields(part)
		switch len(fields) {
		case 1:
			sorts = append(sorts, SortField{Field: fields[0], Desc: true})
		case 2:
			var desc bool
			switch strings.ToLower(fields[1]) {
			case "asc":
				desc = false
			case "desc":
				desc = true
			default:
				return nil, fmt.Errorf("%w: sort direction must be asc or desc, got %q",
					domain.ErrQuerySyntax, fields[1])
			}
			sorts = append(sorts, SortField{Field: fields[0], Desc: desc})
		default:
			return nil, fmt.Errorf("%w: malformed sort clause %q", domain.ErrQuerySyntax, part)
		}
	}
	return sorts, nil
}
