package models

import (
	"time"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"       json:"id"`
	Username     string `gorm:"size:80;uniqueIndex;not null"   json:"username"`
	PasswordHash string `gorm:"not null"                       json:"-"`
	IsAdmin      bool   `gorm:"not null;default:false"         json:"is_admin"`
}

// Product ids are assigned by the repository, never by the database.
type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name        string    `gorm:"size:100;not null"              json:"name"`
	Description string    `gorm:"type:text"                      json:"description"`
	Price       float64   `gorm:"not null"                       json:"price"`
	DateAdded   time.Time `gorm:"not null"                       json:"date_added"`
}

type Session struct {
	ID        string    `gorm:"primaryKey;size:36"   json:"id"`
	UserID    uint      `gorm:"index;not null"       json:"user_id"`
	IsAdmin   bool      `gorm:"not null"             json:"is_admin"`
	ExpiresAt time.Time `gorm:"index;not null"       json:"expires_at"`
	Revoked   bool      `gorm:"default:false"        json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) Active(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}

// Order is the checkout quote carried between the shipping form and the
// confirmation page. It is never persisted.
type Order struct {
	// ID and BuyerID travel as the token's jti and subject.
	ID          string    `json:"-"`
	BuyerID     uint      `json:"-"`
	ProductID   uint      `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	TotalPrice  float64   `json:"total_price"`
	Address     string    `json:"address"`
	IssuedAt    time.Time `json:"issued_at"`
}

func All() []any {
	return []any{&User{}, &Product{}, &Session{}}
}
