package models

import (
	"fmt"
	"strings"
)

// Product is a catalog entry keyed by its internal product code.
type Product struct {
	Code        string `gorm:"primaryKey;size:64" json:"code"`
	Description string `gorm:"size:255;not null" json:"description"`
	Section     string `gorm:"size:128" json:"section"`
}

// Normalize trims surrounding whitespace from every field.
func (p *Product) Normalize() {
	p.Code = strings.TrimSpace(p.Code)
	p.Description = strings.TrimSpace(p.Description)
	p.Section = strings.TrimSpace(p.Section)
}

// Validate checks the fields required to persist a product.
func (p Product) Validate() error {
	if p.Code == "" {
		return fmt.Errorf("%w: product code is required", ErrValidation)
	}
	if p.Description == "" {
		return fmt.Errorf("%w: description is required for product %s", ErrValidation, p.Code)
	}
	return nil
}

// CatalogRow is one data row of a catalog import before validation.
type CatalogRow struct {
	Code        string
	Description string
	Section     string
}

// ImportWarning reports a catalog row that was skipped. Row is the 1-based
// index of the data row (the header is not counted).
type ImportWarning struct {
	Row    int    `json:"row"`
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason"`
}

// ImportResult summarizes a catalog replace-all.
type ImportResult struct {
	Imported int             `json:"imported"`
	Warnings []ImportWarning `json:"warnings"`
}
