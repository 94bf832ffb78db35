package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jqliu/bondflow/internal/model"
)

// Summary aggregates headline statistics for a set of fetched bonds.
type Summary struct {
	Ratings       map[string]int
	EarliestIssue string
	LatestIssue   string
	Total         int
	UniqueIssuers int
}

// Summarize computes summary statistics over the given bonds.
func Summarize(bonds []model.Bond) Summary {
	s := Summary{
		Total:   len(bonds),
		Ratings: make(map[string]int),
	}

	issuers := make(map[string]bool)
	for _, b := range bonds {
		issuers[b.Issuer] = true
		s.Ratings[b.Rating]++

		if b.IssueDate == "" {
			continue
		}
		if s.EarliestIssue == "" || b.IssueDate < s.EarliestIssue {
			s.EarliestIssue = b.IssueDate
		}
		if s.LatestIssue == "" || b.IssueDate > s.LatestIssue {
			s.LatestIssue = b.IssueDate
		}
	}
	s.UniqueIssuers = len(issuers)

	return s
}

// String renders the summary as a multi-line report block.
func (s Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Total records:  %d\n", s.Total)
	fmt.Fprintf(&sb, "Unique issuers: %d\n", s.UniqueIssuers)
	if s.EarliestIssue != "" {
		fmt.Fprintf(&sb, "Issue dates:    %s to %s\n", s.EarliestIssue, s.LatestIssue)
	}

	if len(s.Ratings) > 0 {
		sb.WriteString("Ratings:\n")
		ratings := make([]string, 0, len(s.Ratings))
		for r := range s.Ratings {
			ratings = append(ratings, r)
		}
		sort.Strings(ratings)
		for _, r := range ratings {
			fmt.Fprintf(&sb, "  %-8s %d\n", r, s.Ratings[r])
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}
