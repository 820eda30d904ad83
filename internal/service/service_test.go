package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/db/dbtest"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/mykafka/kafkatest"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/session"
)

type testEnv struct {
	Repo     *repo.GormRepo
	Events   *kafkatest.Recorder
	Auth     *AuthService
	Catalog  *CatalogService
	Checkout *CheckoutService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	r := &repo.GormRepo{DB: dbtest.Open(t)}
	events := &kafkatest.Recorder{}
	sessions := session.NewManager(&session.GormStore{DB: r.DB}, []byte("secret"), time.Hour)

	catalog := &CatalogService{Repo: r, Producer: events}
	return &testEnv{
		Repo:     r,
		Events:   events,
		Auth:     &AuthService{Repo: r, Sessions: sessions, Producer: events},
		Catalog:  catalog,
		Checkout: &CheckoutService{Catalog: catalog, Producer: events, Secret: []byte("checkout"), TTL: 30 * time.Minute},
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.Auth.Register(ctx, "ann", "pw", false)
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.NotEqual(t, "pw", user.PasswordHash)
	require.Equal(t, []string{"user_registered"}, env.Events.Types(mykafka.TopicUsers))

	_, err = env.Auth.Register(ctx, "ann", "other", false)
	require.ErrorIs(t, err, ErrConflict)

	n, err := env.Repo.CountUsers(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	for _, tc := range []struct{ name, user, pass string }{
		{"empty username", "", "pw"},
		{"blank username", "   ", "pw"},
		{"empty password", "bob", ""},
		{"long username", string(make([]byte, 81)), "pw"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.Auth.Register(ctx, tc.user, tc.pass, false)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRegisterAdminFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.Auth.Register(ctx, "mallory", "pw", true)
	require.NoError(t, err)
	require.False(t, user.IsAdmin)

	env.Auth.AllowSelfAdmin = true
	user, err = env.Auth.Register(ctx, "root", "pw", true)
	require.NoError(t, err)
	require.True(t, user.IsAdmin)

	env.Auth.AllowSelfAdmin = false
	admin, err := env.Auth.CreateAdmin(ctx, "ops", "pw")
	require.NoError(t, err)
	require.True(t, admin.IsAdmin)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.Auth.CreateAdmin(ctx, "ann", "pw")
	require.NoError(t, err)

	res, err := env.Auth.Login(ctx, "ann", "pw")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	sess, err := env.Auth.Sessions.Resolve(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, sess.UserID)
	require.True(t, sess.IsAdmin)

	_, unknownErr := env.Auth.Login(ctx, "nobody", "pw")
	_, wrongErr := env.Auth.Login(ctx, "ann", "nope")
	require.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	require.Equal(t, unknownErr.Error(), wrongErr.Error())

	require.NoError(t, env.Auth.Logout(ctx, res.Token))
	require.NoError(t, env.Auth.Logout(ctx, res.Token))
	_, err = env.Auth.Sessions.Resolve(ctx, res.Token)
	require.ErrorIs(t, err, session.ErrInactive)
}

func TestCreateAndUpdateProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fixed := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	env.Catalog.now = func() time.Time { return fixed }

	first, err := env.Catalog.CreateProduct(ctx, ProductInput{Name: "Lamp", Price: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, first.ID)
	require.True(t, fixed.Equal(first.DateAdded))

	env.Catalog.now = func() time.Time { return fixed.Add(time.Hour) }
	second, err := env.Catalog.CreateProduct(ctx, ProductInput{Name: "Desk", Price: 99.5})
	require.NoError(t, err)
	require.EqualValues(t, 2, second.ID)
	require.False(t, first.DateAdded.Equal(second.DateAdded))

	updated, err := env.Catalog.UpdateProduct(ctx, first.ID, ProductInput{Name: "Lamp XL", Description: "big", Price: 12})
	require.NoError(t, err)
	require.Equal(t, first.ID, updated.ID)

	stored, err := env.Catalog.GetProduct(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "Lamp XL", stored.Name)
	require.True(t, fixed.Equal(stored.DateAdded))

	_, err = env.Catalog.UpdateProduct(ctx, 42, ProductInput{Name: "x"})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = env.Catalog.CreateProduct(ctx, ProductInput{Name: "", Price: 1})
	require.ErrorIs(t, err, ErrValidation)
	_, err = env.Catalog.CreateProduct(ctx, ProductInput{Name: "neg", Price: -1})
	require.ErrorIs(t, err, ErrValidation)

	require.Equal(t, []string{"product_created", "product_created", "product_updated"}, env.Events.Types(mykafka.TopicProducts))
}

type stubIndex struct {
	indexed []uint
	err     error
}

func (s *stubIndex) IndexProduct(_ context.Context, p *models.Product) error {
	s.indexed = append(s.indexed, p.ID)
	return nil
}

func (s *stubIndex) Search(context.Context, string, int, int) (int64, []models.Product, error) {
	if s.err != nil {
		return 0, nil, s.err
	}
	return 1, []models.Product{{ID: 77, Name: "from index"}}, nil
}

func TestSearchProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.Catalog.CreateProduct(ctx, ProductInput{Name: "Red Lamp", Price: 1})
	require.NoError(t, err)

	total, items, err := env.Catalog.SearchProducts(ctx, "lamp", 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Red Lamp", items[0].Name)

	idx := &stubIndex{}
	env.Catalog.Index = idx
	_, items, err = env.Catalog.SearchProducts(ctx, "lamp", 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 77, items[0].ID)

	idx.err = errors.New("es down")
	_, items, err = env.Catalog.SearchProducts(ctx, "lamp", 0, 10)
	require.NoError(t, err)
	require.Equal(t, "Red Lamp", items[0].Name)

	_, err = env.Catalog.CreateProduct(ctx, ProductInput{Name: "Chair", Price: 1})
	require.NoError(t, err)
	require.Equal(t, []uint{2}, idx.indexed)

	_, _, err = env.Catalog.SearchProducts(ctx, "  ", 0, 10)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCheckout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	prod, err := env.Catalog.CreateProduct(ctx, ProductInput{Name: "Lamp", Price: 10.0})
	require.NoError(t, err)

	order, err := env.Checkout.Quote(ctx, 5, prod.ID, 3, " 1 Main St ")
	require.NoError(t, err)
	require.Equal(t, 30.0, order.TotalPrice)
	require.Equal(t, "1 Main St", order.Address)

	token, err := env.Checkout.Seal(ctx, order)
	require.NoError(t, err)
	require.Equal(t, []string{"order_placed"}, env.Events.Types(mykafka.TopicOrders))

	confirmed, err := env.Checkout.Confirm(token, 5)
	require.NoError(t, err)
	require.Equal(t, 30.0, confirmed.TotalPrice)
	require.Equal(t, 3, confirmed.Quantity)
	require.Equal(t, order.ID, confirmed.ID)

	// viewing the receipt again does not announce the order again
	_, err = env.Checkout.Confirm(token, 5)
	require.NoError(t, err)
	require.Len(t, env.Events.Types(mykafka.TopicOrders), 1)

	_, err = env.Checkout.Confirm(token, 6)
	require.ErrorIs(t, err, ErrValidation)

	_, err = env.Checkout.Confirm(token+"tampered", 5)
	require.ErrorIs(t, err, ErrValidation)

	env.Checkout.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = env.Checkout.Open(token)
	require.ErrorIs(t, err, ErrValidation)
}

func TestQuoteRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	prod, err := env.Catalog.CreateProduct(ctx, ProductInput{Name: "Pen", Price: 0.1})
	require.NoError(t, err)

	order, err := env.Checkout.Quote(ctx, 1, prod.ID, 3, "here")
	require.NoError(t, err)
	require.Equal(t, 0.3, order.TotalPrice)

	_, err = env.Checkout.Quote(ctx, 1, prod.ID, 0, "here")
	require.ErrorIs(t, err, ErrValidation)
	_, err = env.Checkout.Quote(ctx, 1, prod.ID, 1, "  ")
	require.ErrorIs(t, err, ErrValidation)
	_, err = env.Checkout.Quote(ctx, 1, 999, 1, "here")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = env.Checkout.Quote(ctx, 0, prod.ID, 1, "here")
	require.ErrorIs(t, err, ErrValidation)
}
