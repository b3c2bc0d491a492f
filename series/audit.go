package series

import (
	"fmt"

	"sentiment-dashboard/models"
)

// Audit checks newest-first history for contract violations: per-record
// invariants plus descending date order. It never fails; callers log the result.
func Audit(history []models.StockSentiment) []models.DataIssue {
	var issues []models.DataIssue
	for i, s := range history {
		issues = append(issues, s.Issues()...)

		if i == 0 {
			continue
		}
		prev := history[i-1]
		if !s.Date.IsZero() && !prev.Date.IsZero() && prev.Date.Before(s.Date.Time) {
			issues = append(issues, models.DataIssue{
				Ticker: s.Ticker,
				Kind:   models.IssueOrdering,
				Field:  "date",
				Message: fmt.Sprintf("history not newest first: %s precedes %s",
					prev.Date.Format("2006-01-02"), s.Date.Format("2006-01-02")),
			})
		}
	}
	return issues
}
