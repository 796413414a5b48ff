// Package auditing reconciles a reference quantity against what was
// received and tracks the resolution of each divergence.
package auditing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/recebimento/internal/domain/models"
	"github.com/mamadbah2/recebimento/internal/metrics"
	"github.com/mamadbah2/recebimento/internal/repository/sqlstore"
	"github.com/mamadbah2/recebimento/internal/service/notify"
)

// Options tune audit creation.
type Options struct {
	// DefaultMode applies when an input carries no mode.
	DefaultMode models.AuditMode
	// AutoResolveZero stores zero-divergence audits as Resolved.
	AutoResolveZero bool
}

// Service implements the audit workflow.
type Service struct {
	store    *sqlstore.Store
	notifier notify.Notifier
	metrics  *metrics.Registry
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a new audit service instance. notifier may be nil.
func NewService(store *sqlstore.Store, notifier notify.Notifier, m *metrics.Registry, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DefaultMode == "" {
		opts.DefaultMode = models.ModeConsolidated
	}
	return &Service{
		store:    store,
		notifier: notifier,
		metrics:  m,
		opts:     opts,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Audit computes divergence = observed - reference, persists the record
// and notifies. A notification failure is logged and does not fail the
// audit.
func (s *Service) Audit(ctx context.Context, sess models.Session, in models.AuditInput) (models.AuditRecord, error) {
	if err := models.RequireRole(sess, models.RoleAuditor); err != nil {
		return models.AuditRecord{}, err
	}

	code := strings.TrimSpace(in.ProductCode)
	if code == "" {
		return models.AuditRecord{}, fmt.Errorf("%w: product code is required", models.ErrValidation)
	}
	if err := models.ValidateQuantity(in.ReferenceQuantity); err != nil {
		return models.AuditRecord{}, err
	}

	mode := in.Mode
	if mode == "" {
		mode = s.opts.DefaultMode
	}

	record := models.AuditRecord{
		ProductCode:       code,
		Mode:              mode,
		ReferenceQuantity: in.ReferenceQuantity,
		AuditedBy:         sess.UserID,
		Note:              strings.TrimSpace(in.Note),
	}

	var description string
	err := s.store.Transaction(ctx, func(tx *sqlstore.Store) error {
		observed, receptionID, err := s.observed(ctx, tx, code, mode, in.ReceptionID)
		if err != nil {
			return err
		}

		record.ObservedQuantity = observed
		record.ReceptionID = receptionID
		record.Divergence = observed.Sub(in.ReferenceQuantity)
		record.Status = s.initialStatus(record.Divergence)
		record.AuditedAt = s.now()

		if product, err := tx.GetProduct(ctx, code); err == nil {
			description = product.Description
		} else if !errors.Is(err, models.ErrNotFound) {
			return err
		}

		return tx.CreateAudit(ctx, &record)
	})
	if err != nil {
		return models.AuditRecord{}, fmt.Errorf("audit product %s: %w", code, err)
	}

	s.metrics.AuditCreated(string(record.Mode), string(record.Status))
	s.logger.Info("audit recorded",
		zap.Uint("id", record.ID),
		zap.String("product_code", record.ProductCode),
		zap.String("mode", string(record.Mode)),
		zap.String("divergence", record.Divergence.String()),
		zap.String("status", string(record.Status)),
		zap.String("by", sess.UserID))

	s.emit(ctx, record, description)
	return record, nil
}

// observed resolves the quantity the reference is compared against.
func (s *Service) observed(ctx context.Context, tx *sqlstore.Store, code string, mode models.AuditMode, receptionID uint) (decimal.Decimal, *uint, error) {
	switch mode {
	case models.ModeConsolidated:
		total, n, err := tx.SumReceptions(ctx, code)
		if err != nil {
			return decimal.Zero, nil, err
		}
		if n == 0 {
			return decimal.Zero, nil, fmt.Errorf("%w: no receptions for product %s", models.ErrNotFound, code)
		}
		if err := models.ValidatePrecision(total); err != nil {
			return decimal.Zero, nil, fmt.Errorf("consolidated total of %s: %w", code, err)
		}
		return total, nil, nil

	case models.ModePerRecord:
		var (
			reception models.ReceptionRecord
			err       error
		)
		if receptionID != 0 {
			reception, err = tx.GetReception(ctx, receptionID)
		} else {
			reception, err = tx.LatestReception(ctx, code)
		}
		if err != nil {
			return decimal.Zero, nil, err
		}
		if reception.ProductCode != code {
			return decimal.Zero, nil, fmt.Errorf("%w: reception %d belongs to product %s, not %s",
				models.ErrValidation, reception.ID, reception.ProductCode, code)
		}
		id := reception.ID
		return reception.Quantity, &id, nil

	default:
		return decimal.Zero, nil, fmt.Errorf("%w: unknown audit mode %q", models.ErrValidation, mode)
	}
}

func (s *Service) initialStatus(divergence decimal.Decimal) models.AuditStatus {
	if divergence.IsZero() && s.opts.AutoResolveZero {
		return models.StatusResolved
	}
	return models.StatusOpen
}

func (s *Service) emit(ctx context.Context, record models.AuditRecord, description string) {
	if s.notifier == nil {
		return
	}

	ev := models.DivergenceEvent{
		AuditID:     record.ID,
		ProductCode: record.ProductCode,
		Description: description,
		Observed:    record.ObservedQuantity,
		Reference:   record.ReferenceQuantity,
		Divergence:  record.Divergence,
		Status:      record.Status,
		AuditedBy:   record.AuditedBy,
		AuditedAt:   record.AuditedAt,
	}
	if err := s.notifier.NotifyDivergence(ctx, ev); err != nil {
		s.logger.Warn("divergence notification failed",
			zap.Uint("audit_id", record.ID),
			zap.String("product_code", record.ProductCode),
			zap.Error(err))
	}
}

// SetStatus moves an audit to any of the three statuses. Setting the
// current status again is a no-op.
func (s *Service) SetStatus(ctx context.Context, sess models.Session, id uint, status models.AuditStatus) (models.AuditRecord, error) {
	if err := models.RequireRole(sess, models.RoleAuditor); err != nil {
		return models.AuditRecord{}, err
	}

	switch status {
	case models.StatusOpen, models.StatusInTreatment, models.StatusResolved:
	default:
		return models.AuditRecord{}, fmt.Errorf("%w: unknown audit status %q", models.ErrValidation, status)
	}

	var record models.AuditRecord
	err := s.store.Transaction(ctx, func(tx *sqlstore.Store) error {
		current, err := tx.GetAudit(ctx, id)
		if err != nil {
			return err
		}
		record = current
		if current.Status == status {
			return nil
		}
		if err := tx.UpdateAuditStatus(ctx, id, status); err != nil {
			return err
		}
		record.Status = status
		return nil
	})
	if err != nil {
		return models.AuditRecord{}, fmt.Errorf("set audit status: %w", err)
	}

	s.metrics.StatusChanged(string(status))
	s.logger.Info("audit status set",
		zap.Uint("id", id),
		zap.String("status", string(status)),
		zap.String("by", sess.UserID))
	return record, nil
}

// Get loads one audit.
func (s *Service) Get(ctx context.Context, sess models.Session, id uint) (models.AuditRecord, error) {
	if err := models.RequireRole(sess, models.RoleAuditor); err != nil {
		return models.AuditRecord{}, err
	}
	record, err := s.store.GetAudit(ctx, id)
	if err != nil {
		return models.AuditRecord{}, fmt.Errorf("get audit: %w", err)
	}
	return record, nil
}
