package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AuditStatus is the resolution state of an audit divergence.
type AuditStatus string

const (
	StatusOpen        AuditStatus = "Open"
	StatusInTreatment AuditStatus = "InTreatment"
	StatusResolved    AuditStatus = "Resolved"
)

// ParseAuditStatus matches case-insensitively and tolerates spaces or
// underscores in "In Treatment".
func ParseAuditStatus(raw string) (AuditStatus, error) {
	normalized := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.TrimSpace(raw)))
	switch normalized {
	case "open":
		return StatusOpen, nil
	case "intreatment":
		return StatusInTreatment, nil
	case "resolved":
		return StatusResolved, nil
	default:
		return "", fmt.Errorf("%w: unknown audit status %q", ErrValidation, raw)
	}
}

// AuditMode selects how the observed quantity is resolved.
type AuditMode string

const (
	// ModePerRecord compares against a single reception.
	ModePerRecord AuditMode = "per_record"
	// ModeConsolidated compares against the sum of all receptions of the product.
	ModeConsolidated AuditMode = "consolidated"
)

// ParseAuditMode returns fallback for an empty value.
func ParseAuditMode(raw string, fallback AuditMode) (AuditMode, error) {
	switch AuditMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return fallback, nil
	case ModePerRecord:
		return ModePerRecord, nil
	case ModeConsolidated:
		return ModeConsolidated, nil
	default:
		return "", fmt.Errorf("%w: unknown audit mode %q", ErrValidation, raw)
	}
}

// AuditRecord stores one reconciliation of observed against reference quantity.
// Only Status changes after creation.
type AuditRecord struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	ProductCode       string          `gorm:"size:64;index;not null" json:"product_code"`
	ReceptionID       *uint           `gorm:"index" json:"reception_id,omitempty"`
	Mode              AuditMode       `gorm:"size:16;not null" json:"mode"`
	ObservedQuantity  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"observed_quantity"`
	ReferenceQuantity decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"reference_quantity"`
	Divergence        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"divergence"`
	AuditedAt         time.Time       `gorm:"index;not null" json:"audited_at"`
	AuditedBy         string          `gorm:"size:64;index;not null" json:"audited_by"`
	Note              string          `gorm:"type:text" json:"note"`
	Status            AuditStatus     `gorm:"size:16;index;not null" json:"status"`
}

// HasDivergence reports a non-zero divergence.
func (a AuditRecord) HasDivergence() bool {
	return !a.Divergence.IsZero()
}

// AuditInput is the payload of an audit action. ReceptionID is only
// honoured in per-record mode.
type AuditInput struct {
	ProductCode       string
	ReceptionID       uint
	Mode              AuditMode
	ReferenceQuantity decimal.Decimal
	Note              string
}

// DivergenceEvent is emitted after an audit is persisted.
type DivergenceEvent struct {
	AuditID     uint            `json:"audit_id"`
	ProductCode string          `json:"product_code"`
	Description string          `json:"description,omitempty"`
	Observed    decimal.Decimal `json:"observed"`
	Reference   decimal.Decimal `json:"reference"`
	Divergence  decimal.Decimal `json:"divergence"`
	Status      AuditStatus     `json:"status"`
	AuditedBy   string          `json:"audited_by"`
	AuditedAt   time.Time       `json:"audited_at"`
}
