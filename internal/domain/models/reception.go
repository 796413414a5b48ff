package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Condition flags the state of the received goods.
type Condition string

const (
	ConditionGood Condition = "good"
	ConditionBad  Condition = "bad"
)

// ParseCondition accepts an empty value as ConditionGood.
func ParseCondition(raw string) (Condition, error) {
	switch Condition(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ConditionGood:
		return ConditionGood, nil
	case ConditionBad:
		return ConditionBad, nil
	default:
		return "", fmt.Errorf("%w: unknown condition %q", ErrValidation, raw)
	}
}

// ReceptionRecord captures one weighed or counted delivery of a product.
type ReceptionRecord struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ProductCode   string          `gorm:"size:64;index;not null" json:"product_code"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	ReceivedAt    time.Time       `gorm:"index;not null" json:"received_at"`
	SubmittedBy   string          `gorm:"size:64;index;not null" json:"submitted_by"`
	Note          string          `gorm:"type:text" json:"note"`
	Condition     Condition       `gorm:"size:8;not null;default:good" json:"condition"`
	EvidencePhoto []byte          `json:"-"`
}

// HasPhoto reports whether evidence was attached.
func (r ReceptionRecord) HasPhoto() bool {
	return len(r.EvidencePhoto) > 0
}

// ReceptionInput is the payload of a reception entry. Description and
// Section are only used when ProductCode is not yet in the catalog.
type ReceptionInput struct {
	ProductCode   string
	Quantity      decimal.Decimal
	Note          string
	Condition     Condition
	EvidencePhoto []byte
	Description   string
	Section       string
}

// ProductTotal is the consolidated quantity received for one product.
type ProductTotal struct {
	ProductCode string          `json:"product_code"`
	Description string          `json:"description,omitempty"`
	Total       decimal.Decimal `json:"total"`
	Receptions  int             `json:"receptions"`
}
