package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportFilter narrows ledger queries. From and To are calendar days and
// both bounds are inclusive; a zero value leaves that side open.
type ReportFilter struct {
	From       time.Time
	To         time.Time
	Status     AuditStatus
	Unresolved bool
	Submitter  string
}

// DailyDigest represents the aggregated activity of one day.
type DailyDigest struct {
	Date             time.Time       `json:"date"`
	Receptions       int             `json:"receptions"`
	Audits           int             `json:"audits"`
	Open             int             `json:"open"`
	InTreatment      int             `json:"in_treatment"`
	Resolved         int             `json:"resolved"`
	NetDivergence    decimal.Decimal `json:"net_divergence"`
	PendingBacklog   int             `json:"pending_backlog"`
	LargestProduct   string          `json:"largest_product,omitempty"`
	LargestDeviation decimal.Decimal `json:"largest_deviation"`
	CreatedAt        time.Time       `json:"created_at"`
}
