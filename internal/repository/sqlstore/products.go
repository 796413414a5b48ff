package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mamadbah2/recebimento/internal/domain/models"
)

const productBatchSize = 200

// GetProduct looks a product up by code.
func (s *Store) GetProduct(ctx context.Context, code string) (models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Where("code = ?", code).Take(&product).Error
	if err != nil {
		if isRecordNotFound(err) {
			return models.Product{}, notFound("product", code)
		}
		return models.Product{}, storageError("get product", err)
	}
	return product, nil
}

// CreateProduct inserts a new product and fails with ErrDuplicateCode when
// the code is already taken.
func (s *Store) CreateProduct(ctx context.Context, product models.Product) error {
	err := s.db.WithContext(ctx).Create(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", models.ErrDuplicateCode, product.Code)
		}
		return storageError("create product", err)
	}
	return nil
}

// ReplaceProducts deletes every product and inserts the given set. Callers
// should run it inside Transaction.
func (s *Store) ReplaceProducts(ctx context.Context, products []models.Product) error {
	db := s.db.WithContext(ctx)
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Product{}).Error; err != nil {
		return storageError("clear catalog", err)
	}
	if len(products) == 0 {
		return nil
	}
	if err := db.CreateInBatches(products, productBatchSize).Error; err != nil {
		return storageError("load catalog", err)
	}
	return nil
}

// ProductsByCode returns the known products among codes, keyed by code.
func (s *Store) ProductsByCode(ctx context.Context, codes []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(codes))
	if len(codes) == 0 {
		return out, nil
	}

	var products []models.Product
	if err := s.db.WithContext(ctx).Where("code IN ?", codes).Find(&products).Error; err != nil {
		return nil, storageError("list products", err)
	}
	for _, p := range products {
		out[p.Code] = p
	}
	return out, nil
}

// CountProducts returns the catalog size.
func (s *Store) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error; err != nil {
		return 0, storageError("count products", err)
	}
	return n, nil
}
