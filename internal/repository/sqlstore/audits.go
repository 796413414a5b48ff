package sqlstore

import (
	"context"

	"github.com/mamadbah2/recebimento/internal/domain/models"
)

// AuditQuery narrows audit listings.
type AuditQuery struct {
	Range      TimeRange
	Status     models.AuditStatus
	Unresolved bool
	AuditedBy  string
}

// CreateAudit appends an audit row and fills its ID.
func (s *Store) CreateAudit(ctx context.Context, record *models.AuditRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return storageError("create audit", err)
	}
	return nil
}

// GetAudit loads an audit by id.
func (s *Store) GetAudit(ctx context.Context, id uint) (models.AuditRecord, error) {
	var record models.AuditRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&record).Error; err != nil {
		if isRecordNotFound(err) {
			return models.AuditRecord{}, notFound("audit", id)
		}
		return models.AuditRecord{}, storageError("get audit", err)
	}
	return record, nil
}

// UpdateAuditStatus changes the only mutable column of an audit.
func (s *Store) UpdateAuditStatus(ctx context.Context, id uint, status models.AuditStatus) error {
	res := s.db.WithContext(ctx).
		Model(&models.AuditRecord{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return storageError("update audit status", res.Error)
	}
	return nil
}

// QueryAudits lists audits in chronological order.
func (s *Store) QueryAudits(ctx context.Context, q AuditQuery) ([]models.AuditRecord, error) {
	db := q.Range.apply(s.db.WithContext(ctx), "audited_at")
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.Unresolved {
		db = db.Where("status <> ?", models.StatusResolved)
	}
	if q.AuditedBy != "" {
		db = db.Where("audited_by = ?", q.AuditedBy)
	}

	var records []models.AuditRecord
	if err := db.Order("audited_at ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, storageError("query audits", err)
	}
	return records, nil
}

// CountUnresolved returns the number of audits not yet Resolved.
func (s *Store) CountUnresolved(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.AuditRecord{}).
		Where("status <> ?", models.StatusResolved).
		Count(&n).Error
	if err != nil {
		return 0, storageError("count unresolved audits", err)
	}
	return n, nil
}
