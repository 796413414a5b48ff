// Package receiving records weighed or counted deliveries into the
// reception ledger.
package receiving

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/recebimento/internal/domain/models"
	"github.com/mamadbah2/recebimento/internal/metrics"
	"github.com/mamadbah2/recebimento/internal/repository/sqlstore"
)

const (
	// DefaultRecentLimit is used when Recent receives a non-positive limit.
	DefaultRecentLimit = 50
	// MaxRecentLimit caps Recent listings.
	MaxRecentLimit = 500
)

// Service implements the reception workflow.
type Service struct {
	store   *sqlstore.Store
	metrics *metrics.Registry
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires a new reception service instance.
func NewService(store *sqlstore.Store, m *metrics.Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		metrics: m,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Record appends a reception. An unknown product is created in the same
// transaction when the input carries a description; otherwise the call
// fails with ErrNotFound so the caller can collect one.
func (s *Service) Record(ctx context.Context, sess models.Session, in models.ReceptionInput) (models.ReceptionRecord, error) {
	if err := models.RequireRole(sess, models.RoleReceiver); err != nil {
		return models.ReceptionRecord{}, err
	}

	record, product, err := s.prepare(sess, in)
	if err != nil {
		return models.ReceptionRecord{}, err
	}

	var createdProduct bool
	err = s.store.Transaction(ctx, func(tx *sqlstore.Store) error {
		_, err := tx.GetProduct(ctx, record.ProductCode)
		switch {
		case err == nil:
		case errors.Is(err, models.ErrNotFound):
			if product.Description == "" {
				return fmt.Errorf("%w: product %s is not in the catalog, a description is required to create it",
					models.ErrNotFound, record.ProductCode)
			}
			if err := tx.CreateProduct(ctx, product); err != nil {
				return err
			}
			createdProduct = true
		default:
			return err
		}
		return tx.CreateReception(ctx, &record)
	})
	if err != nil {
		return models.ReceptionRecord{}, fmt.Errorf("record reception: %w", err)
	}

	s.metrics.ReceptionRecorded()
	s.logger.Info("reception recorded",
		zap.Uint("id", record.ID),
		zap.String("product_code", record.ProductCode),
		zap.String("quantity", record.Quantity.String()),
		zap.String("condition", string(record.Condition)),
		zap.Bool("product_created", createdProduct),
		zap.String("by", sess.UserID))

	return record, nil
}

func (s *Service) prepare(sess models.Session, in models.ReceptionInput) (models.ReceptionRecord, models.Product, error) {
	product := models.Product{Code: in.ProductCode, Description: in.Description, Section: in.Section}
	product.Normalize()
	if product.Code == "" {
		return models.ReceptionRecord{}, models.Product{}, fmt.Errorf("%w: product code is required", models.ErrValidation)
	}

	if err := models.ValidateQuantity(in.Quantity); err != nil {
		return models.ReceptionRecord{}, models.Product{}, err
	}

	condition := in.Condition
	if condition == "" {
		condition = models.ConditionGood
	}
	if condition != models.ConditionGood && condition != models.ConditionBad {
		return models.ReceptionRecord{}, models.Product{}, fmt.Errorf("%w: unknown condition %q", models.ErrValidation, condition)
	}
	if len(in.EvidencePhoto) > 0 && condition != models.ConditionBad {
		return models.ReceptionRecord{}, models.Product{}, fmt.Errorf("%w: an evidence photo is only accepted for goods in bad condition", models.ErrValidation)
	}

	record := models.ReceptionRecord{
		ProductCode:   product.Code,
		Quantity:      in.Quantity,
		ReceivedAt:    s.now(),
		SubmittedBy:   sess.UserID,
		Note:          strings.TrimSpace(in.Note),
		Condition:     condition,
		EvidencePhoto: in.EvidencePhoto,
	}
	return record, product, nil
}

// Recent returns the latest receptions in chronological order.
func (s *Service) Recent(ctx context.Context, sess models.Session, limit int) ([]models.ReceptionRecord, error) {
	if err := models.RequireRole(sess, models.RoleReceiver); err != nil {
		return nil, err
	}

	switch {
	case limit <= 0:
		limit = DefaultRecentLimit
	case limit > MaxRecentLimit:
		limit = MaxRecentLimit
	}

	records, err := s.store.RecentReceptions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent receptions: %w", err)
	}
	slices.Reverse(records)
	return records, nil
}

// Delete hard-deletes a mistaken reception. Audits that referenced it keep
// the dangling id.
func (s *Service) Delete(ctx context.Context, sess models.Session, id uint) error {
	if err := models.RequireRole(sess, models.RoleReceiver); err != nil {
		return err
	}

	if err := s.store.DeleteReception(ctx, id); err != nil {
		return fmt.Errorf("delete reception: %w", err)
	}

	s.metrics.ReceptionDeleted()
	s.logger.Info("reception deleted", zap.Uint("id", id), zap.String("by", sess.UserID))
	return nil
}

// Photo returns the evidence photo attached to a reception.
func (s *Service) Photo(ctx context.Context, sess models.Session, id uint) ([]byte, error) {
	if err := models.RequireRole(sess, models.RoleAuditor); err != nil {
		return nil, err
	}

	record, err := s.store.GetReception(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reception photo: %w", err)
	}
	if !record.HasPhoto() {
		return nil, fmt.Errorf("%w: reception %d has no photo", models.ErrNotFound, id)
	}
	return record.EvidencePhoto, nil
}

// Consolidated returns the summed quantity per product, with descriptions
// filled from the catalog where the code is known.
func (s *Service) Consolidated(ctx context.Context, sess models.Session) ([]models.ProductTotal, error) {
	if err := models.RequireRole(sess, models.RoleAuditor); err != nil {
		return nil, err
	}

	totals, err := s.store.ReceptionTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("consolidate receptions: %w", err)
	}

	codes := make([]string, 0, len(totals))
	for _, t := range totals {
		codes = append(codes, t.ProductCode)
	}
	products, err := s.store.ProductsByCode(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("consolidate receptions: %w", err)
	}
	for i := range totals {
		totals[i].Description = products[totals[i].ProductCode].Description
	}
	return totals, nil
}
