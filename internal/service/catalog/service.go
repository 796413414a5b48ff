// Package catalog maps product codes to their description and section.
package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/recebimento/internal/domain/models"
	"github.com/mamadbah2/recebimento/internal/metrics"
	"github.com/mamadbah2/recebimento/internal/repository/sqlstore"
	"github.com/mamadbah2/recebimento/internal/spreadsheet"
)

// Service exposes catalog lookups and maintenance.
type Service struct {
	store   *sqlstore.Store
	metrics *metrics.Registry
	logger  *zap.Logger
}

// NewService wires a new catalog service instance.
func NewService(store *sqlstore.Store, m *metrics.Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, metrics: m, logger: logger}
}

// Lookup returns the product registered under code.
func (s *Service) Lookup(ctx context.Context, sess models.Session, code string) (models.Product, error) {
	if err := models.RequireRole(sess, models.RoleReceiver, models.RoleAuditor); err != nil {
		return models.Product{}, err
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return models.Product{}, fmt.Errorf("%w: product code is required", models.ErrValidation)
	}

	product, err := s.store.GetProduct(ctx, code)
	if err != nil {
		return models.Product{}, fmt.Errorf("lookup product: %w", err)
	}
	return product, nil
}

// Create registers a new product. Existing codes fail with ErrDuplicateCode.
func (s *Service) Create(ctx context.Context, sess models.Session, code, description, section string) (models.Product, error) {
	if err := models.RequireRole(sess, models.RoleAdmin); err != nil {
		return models.Product{}, err
	}

	product := models.Product{Code: code, Description: description, Section: section}
	product.Normalize()
	if err := product.Validate(); err != nil {
		return models.Product{}, err
	}

	if err := s.store.CreateProduct(ctx, product); err != nil {
		return models.Product{}, fmt.Errorf("create product: %w", err)
	}

	s.logger.Info("product created", zap.String("code", product.Code), zap.String("by", sess.UserID))
	return product, nil
}

// ReplaceAll wipes the catalog and loads rows in a single transaction.
// Rows without code or description, and repeated codes, are skipped and
// reported instead of aborting the batch.
func (s *Service) ReplaceAll(ctx context.Context, sess models.Session, rows []models.CatalogRow) (models.ImportResult, error) {
	if err := models.RequireRole(sess, models.RoleAdmin); err != nil {
		return models.ImportResult{}, err
	}

	products, warnings := sanitize(rows)

	err := s.store.Transaction(ctx, func(tx *sqlstore.Store) error {
		return tx.ReplaceProducts(ctx, products)
	})
	if err != nil {
		return models.ImportResult{}, fmt.Errorf("replace catalog: %w", err)
	}

	s.metrics.CatalogLoaded(len(products))
	for _, w := range warnings {
		s.logger.Warn("catalog row skipped", zap.Int("row", w.Row), zap.String("code", w.Code), zap.String("reason", w.Reason))
	}
	s.logger.Info("catalog replaced",
		zap.Int("imported", len(products)),
		zap.Int("skipped", len(warnings)),
		zap.String("by", sess.UserID))

	return models.ImportResult{Imported: len(products), Warnings: warnings}, nil
}

// Import parses an xlsx upload and replaces the catalog with its rows. A
// file missing a required column is rejected before anything is deleted.
func (s *Service) Import(ctx context.Context, sess models.Session, r io.Reader) (models.ImportResult, error) {
	if err := models.RequireRole(sess, models.RoleAdmin); err != nil {
		return models.ImportResult{}, err
	}

	rows, err := spreadsheet.ReadCatalog(r)
	if err != nil {
		return models.ImportResult{}, fmt.Errorf("read catalog file: %w", err)
	}
	return s.ReplaceAll(ctx, sess, rows)
}

func sanitize(rows []models.CatalogRow) ([]models.Product, []models.ImportWarning) {
	products := make([]models.Product, 0, len(rows))
	warnings := make([]models.ImportWarning, 0)
	seen := make(map[string]int, len(rows))

	for i, row := range rows {
		line := i + 1
		product := models.Product{Code: row.Code, Description: row.Description, Section: row.Section}
		product.Normalize()

		switch {
		case product.Code == "" && product.Description == "":
			// blank spreadsheet line
			continue
		case product.Code == "":
			warnings = append(warnings, models.ImportWarning{Row: line, Reason: "missing code"})
			continue
		case product.Description == "":
			warnings = append(warnings, models.ImportWarning{Row: line, Code: product.Code, Reason: "missing description"})
			continue
		}

		if first, dup := seen[product.Code]; dup {
			warnings = append(warnings, models.ImportWarning{
				Row:    line,
				Code:   product.Code,
				Reason: fmt.Sprintf("duplicate of row %d", first),
			})
			continue
		}
		seen[product.Code] = line
		products = append(products, product)
	}

	return products, warnings
}
