package session

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

var ErrNotFound = errors.New("session not found")

type Store interface {
	Save(ctx context.Context, s *models.Session) error
	Find(ctx context.Context, id string) (*models.Session, error)
	Revoke(ctx context.Context, id string) error
}

type GormStore struct {
	DB *gorm.DB
}

func (g *GormStore) Save(ctx context.Context, s *models.Session) error {
	s.ExpiresAt = s.ExpiresAt.UTC()
	return g.DB.WithContext(ctx).Create(s).Error
}

func (g *GormStore) Find(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	if err := g.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Revoke is a no-op for unknown ids.
func (g *GormStore) Revoke(ctx context.Context, id string) error {
	return g.DB.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", id).
		Update("revoked", true).Error
}

func (g *GormStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := g.DB.WithContext(ctx).
		Where("expires_at < ? OR revoked = ?", now.UTC(), true).
		Delete(&models.Session{})
	return res.RowsAffected, res.Error
}
