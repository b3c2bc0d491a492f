package models

import "strconv"

// IssueKind classifies a data-quality problem found in an upstream payload.
type IssueKind string

const (
	IssueIndexOutOfRange IssueKind = "index_out_of_range"
	IssueMentionSum      IssueKind = "mention_sum_mismatch"
	IssueUnknownLabel    IssueKind = "unknown_label"
	IssueSignMismatch    IssueKind = "sign_mismatch"
	IssueUnknownCategory IssueKind = "unknown_category"
	IssueNonFinite       IssueKind = "non_finite"
	IssueOrdering        IssueKind = "ordering"
	IssueNegativeCount   IssueKind = "negative_count"
)

// DataIssue describes a record that violates an upstream contract. Issues are
// warnings: a view is still rendered from the offending record.
type DataIssue struct {
	Ticker  string    `json:"ticker"`
	Kind    IssueKind `json:"kind"`
	Field   string    `json:"field"`
	Message string    `json:"message"`
}

func (i DataIssue) String() string {
	return i.Ticker + ": " + i.Field + ": " + i.Message
}

func quote(s string) string {
	return strconv.Quote(s)
}
