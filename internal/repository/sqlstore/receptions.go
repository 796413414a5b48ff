package sqlstore

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/recebimento/internal/domain/models"
)

const photoColumn = "evidence_photo"

// ReceptionQuery narrows reception listings.
type ReceptionQuery struct {
	Range       TimeRange
	SubmittedBy string
	ProductCode string
}

// CreateReception appends a reception row and fills its ID.
func (s *Store) CreateReception(ctx context.Context, record *models.ReceptionRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return storageError("create reception", err)
	}
	return nil
}

// GetReception loads a reception including its evidence photo.
func (s *Store) GetReception(ctx context.Context, id uint) (models.ReceptionRecord, error) {
	var record models.ReceptionRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&record).Error; err != nil {
		if isRecordNotFound(err) {
			return models.ReceptionRecord{}, notFound("reception", id)
		}
		return models.ReceptionRecord{}, storageError("get reception", err)
	}
	return record, nil
}

// LatestReception returns the most recent reception for a product.
func (s *Store) LatestReception(ctx context.Context, productCode string) (models.ReceptionRecord, error) {
	var record models.ReceptionRecord
	err := s.db.WithContext(ctx).
		Omit(photoColumn).
		Where("product_code = ?", productCode).
		Order("received_at DESC").Order("id DESC").
		Take(&record).Error
	if err != nil {
		if isRecordNotFound(err) {
			return models.ReceptionRecord{}, notFound("reception for product", productCode)
		}
		return models.ReceptionRecord{}, storageError("latest reception", err)
	}
	return record, nil
}

// RecentReceptions returns up to limit receptions, newest first.
func (s *Store) RecentReceptions(ctx context.Context, limit int) ([]models.ReceptionRecord, error) {
	var records []models.ReceptionRecord
	err := s.db.WithContext(ctx).
		Omit(photoColumn).
		Order("received_at DESC").Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, storageError("recent receptions", err)
	}
	return records, nil
}

// DeleteReception hard-deletes a reception.
func (s *Store) DeleteReception(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ReceptionRecord{})
	if res.Error != nil {
		return storageError("delete reception", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("reception", id)
	}
	return nil
}

// SumReceptions returns the consolidated quantity and reception count for a
// product. Summation happens in decimal to keep two-place weights exact.
func (s *Store) SumReceptions(ctx context.Context, productCode string) (decimal.Decimal, int, error) {
	var quantities []decimal.Decimal
	err := s.db.WithContext(ctx).
		Model(&models.ReceptionRecord{}).
		Where("product_code = ?", productCode).
		Pluck("quantity", &quantities).Error
	if err != nil {
		return decimal.Zero, 0, storageError("sum receptions", err)
	}
	return decimal.Sum(decimal.Zero, quantities...), len(quantities), nil
}

// ReceptionTotals returns the consolidated quantity of every product that
// has at least one reception, ordered by product code.
func (s *Store) ReceptionTotals(ctx context.Context) ([]models.ProductTotal, error) {
	var rows []struct {
		ProductCode string
		Quantity    decimal.Decimal
	}
	err := s.db.WithContext(ctx).
		Model(&models.ReceptionRecord{}).
		Select("product_code", "quantity").
		Scan(&rows).Error
	if err != nil {
		return nil, storageError("reception totals", err)
	}

	byCode := make(map[string]*models.ProductTotal)
	for _, row := range rows {
		total, ok := byCode[row.ProductCode]
		if !ok {
			total = &models.ProductTotal{ProductCode: row.ProductCode, Total: decimal.Zero}
			byCode[row.ProductCode] = total
		}
		total.Total = total.Total.Add(row.Quantity)
		total.Receptions++
	}

	out := make([]models.ProductTotal, 0, len(byCode))
	for _, total := range byCode {
		out = append(out, *total)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductCode < out[j].ProductCode })
	return out, nil
}

// QueryReceptions lists receptions in chronological order.
func (s *Store) QueryReceptions(ctx context.Context, q ReceptionQuery) ([]models.ReceptionRecord, error) {
	db := q.Range.apply(s.db.WithContext(ctx).Omit(photoColumn), "received_at")
	if q.SubmittedBy != "" {
		db = db.Where("submitted_by = ?", q.SubmittedBy)
	}
	if q.ProductCode != "" {
		db = db.Where("product_code = ?", q.ProductCode)
	}

	var records []models.ReceptionRecord
	if err := db.Order("received_at ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, storageError("query receptions", err)
	}
	return records, nil
}
