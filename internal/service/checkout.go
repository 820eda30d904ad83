package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

// CheckoutService prices a single product purchase and carries the result to
// the confirmation page in a signed token. Orders are never stored.
type CheckoutService struct {
	Catalog  *CatalogService
	Producer mykafka.Publisher
	Secret   []byte
	TTL      time.Duration

	now func() time.Time
}

func (s *CheckoutService) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// Quote prices quantity units of a product for buyerID.
func (s *CheckoutService) Quote(ctx context.Context, buyerID, productID uint, quantity int, address string) (*models.Order, error) {
	if buyerID == 0 {
		return nil, fmt.Errorf("%w: buyer required", ErrValidation)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("%w: address required", ErrValidation)
	}

	prod, err := s.Catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	return &models.Order{
		ID:          uuid.NewString(),
		BuyerID:     buyerID,
		ProductID:   prod.ID,
		ProductName: prod.Name,
		Quantity:    quantity,
		UnitPrice:   prod.Price,
		TotalPrice:  roundCents(prod.Price * float64(quantity)),
		Address:     address,
		IssuedAt:    s.clock().UTC().Truncate(time.Second),
	}, nil
}

// Seal signs order into a confirmation token and announces the order once.
func (s *CheckoutService) Seal(ctx context.Context, order *models.Order) (string, error) {
	token, err := tokens.SignOrder(s.Secret, *order, order.IssuedAt.Add(s.TTL))
	if err != nil {
		return "", err
	}

	mykafka.Publish(ctx, s.Producer, logging.FromContext(ctx), mykafka.TopicOrders, order.ID,
		mykafka.NewEvent("order_placed", map[string]any{
			"order_id":    order.ID,
			"userID":      order.BuyerID,
			"productID":   order.ProductID,
			"quantity":    order.Quantity,
			"total_price": order.TotalPrice,
		}))
	return token, nil
}

func (s *CheckoutService) Open(token string) (*models.Order, error) {
	order, err := tokens.OrderFromToken(token, s.Secret, jwt.WithTimeFunc(s.clock))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return order, nil
}

// Confirm opens token for the receipt page. Only the buyer may view it.
func (s *CheckoutService) Confirm(token string, viewerID uint) (*models.Order, error) {
	order, err := s.Open(token)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != viewerID {
		return nil, fmt.Errorf("%w: order %s belongs to another user", ErrValidation, order.ID)
	}
	return order, nil
}
