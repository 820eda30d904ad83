package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
)

const maxProductNameLen = 100

type SearchIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type CatalogService struct {
	Repo     *repo.GormRepo
	Producer mykafka.Publisher
	// Index is optional; without it search falls back to the database.
	Index SearchIndex

	now func() time.Time
}

type ProductInput struct {
	Name        string
	Description string
	Price       float64
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if utf8.RuneCountInString(in.Name) > maxProductNameLen {
		return fmt.Errorf("%w: name longer than %d characters", ErrValidation, maxProductNameLen)
	}
	if math.IsNaN(in.Price) || math.IsInf(in.Price, 0) || in.Price < 0 {
		return fmt.Errorf("%w: price must be a number >= 0", ErrValidation)
	}
	return nil
}

func (s *CatalogService) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.Repo.ListProducts(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.GetProducts(ctx, offset, limit)
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	prod := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		DateAdded:   s.clock().UTC(),
	}
	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.afterWrite(ctx, "product_created", prod)
	return prod, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	prod, err := s.Repo.UpdateProduct(ctx, id, in.Name, in.Description, in.Price)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.afterWrite(ctx, "product_updated", prod)
	return prod, nil
}

func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	if strings.TrimSpace(q) == "" {
		return 0, nil, fmt.Errorf("%w: query required", ErrValidation)
	}
	if s.Index != nil {
		total, items, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "reason", "falling back to database", "error", err)
	}
	return s.Repo.SearchProducts(ctx, q, offset, limit)
}

func (s *CatalogService) afterWrite(ctx context.Context, kind string, prod *models.Product) {
	l := logging.FromContext(ctx)
	if s.Index != nil {
		if err := s.Index.IndexProduct(ctx, prod); err != nil {
			l.Warn("search_index_failed", "productID", prod.ID, "error", err)
		}
	}
	mykafka.Publish(ctx, s.Producer, l, mykafka.TopicProducts, strconv.FormatUint(uint64(prod.ID), 10),
		mykafka.NewEvent(kind, map[string]any{
			"productID": prod.ID,
			"name":      prod.Name,
			"price":     prod.Price,
		}))
}
