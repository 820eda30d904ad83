package repo

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

const createAttempts = 3

func (r *GormRepo) ListProducts(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

// CreateProduct assigns prod.ID = max(id)+1 (1 for an empty catalog) and
// inserts it in one transaction. A concurrent writer that claims the same id
// makes the insert fail on the primary key; the whole step is then retried.
func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	var err error
	for attempt := 0; attempt < createAttempts; attempt++ {
		err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var next uint
			if err := tx.Raw("SELECT COALESCE(MAX(id), 0) + 1 FROM products").Scan(&next).Error; err != nil {
				return err
			}
			prod.ID = next
			return tx.Create(prod).Error
		})
		if err == nil || !isDuplicate(err) {
			break
		}
	}
	if err != nil {
		prod.ID = 0
		if isDuplicate(err) {
			return fmt.Errorf("%w: product id", ErrDuplicate)
		}
		return err
	}
	return nil
}

// UpdateProduct overwrites name, description and price. id and date_added
// are never touched.
func (r *GormRepo) UpdateProduct(ctx context.Context, id uint, name, description string, price float64) (*models.Product, error) {
	var prod models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&prod).Error; err != nil {
			return err
		}
		return tx.Model(&prod).
			Select("name", "description", "price").
			Updates(map[string]any{
				"name":        name,
				"description": description,
				"price":       price,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	prod.Name = name
	prod.Description = description
	prod.Price = price
	return &prod, nil
}

func (r *GormRepo) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	where := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)

	var total int64
	if err := where.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := where.Session(&gorm.Session{}).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}
