package tokens

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

const orderAudience = "order_confirmation"

type OrderClaims struct {
	Order models.Order `json:"order"`
	jwt.RegisteredClaims
}

func SignOrder(secret []byte, order models.Order, expires time.Time) (string, error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	claims := OrderClaims{
		Order: order,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        order.ID,
			Subject:   strconv.FormatUint(uint64(order.BuyerID), 10),
			Audience:  jwt.ClaimStrings{orderAudience},
			IssuedAt:  jwt.NewNumericDate(order.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func OrderFromToken(tokenStr string, secret []byte, opts ...jwt.ParserOption) (*models.Order, error) {
	var claims OrderClaims
	opts = append(opts, jwt.WithAudience(orderAudience), jwt.WithExpirationRequired())
	if err := parse(tokenStr, &claims, secret, opts...); err != nil {
		return nil, err
	}
	buyer, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || buyer == 0 {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	claims.Order.ID = claims.ID
	claims.Order.BuyerID = uint(buyer)
	return &claims.Order, nil
}
