package view

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/flash"
	"github.com/Skotchmaster/storefront/internal/models"
)

func TestRenderPages(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	products := []models.Product{{ID: 1, Name: "Lamp <b>", Price: 9.5, DateAdded: time.Now()}}
	order := &models.Order{ProductName: "Lamp", Quantity: 3, UnitPrice: 10, TotalPrice: 30, Address: "1 Main St"}

	cases := map[string]map[string]any{
		"login":        {"Username": "ann"},
		"register":     {"AllowSelfAdmin": true},
		"home":         {"Products": products},
		"admin":        {"Products": products},
		"edit_product": {"Products": products},
		"add_product":  {},
		"shipping":     {"Product": &products[0]},
		"order":        {"Order": order},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			page := Page{
				Title:    name,
				CSRF:     "tok",
				LoggedIn: true,
				Flashes:  []flash.Message{{Category: flash.Info, Text: "hi"}},
				Data:     data,
			}
			require.NoError(t, r.Render(&buf, name, page, nil))
			require.Contains(t, buf.String(), `alert-info`)
		})
	}
}

func TestRenderEscapesAndTotals(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	products := []models.Product{{ID: 1, Name: "Lamp <b>"}}
	require.NoError(t, r.Render(&buf, "home", Page{Data: map[string]any{"Products": products}}, nil))
	require.Contains(t, buf.String(), "Lamp &lt;b&gt;")

	buf.Reset()
	order := &models.Order{TotalPrice: 30}
	require.NoError(t, r.Render(&buf, "order", Page{Data: map[string]any{"Order": order}}, nil))
	require.Contains(t, buf.String(), "30.00")

	require.Error(t, r.Render(&buf, "missing", Page{}, nil))
}

func TestEditFormPricesAreDecimal(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	for price, want := range map[float64]string{
		1000000: `value="1000000"`,
		2500000: `value="2500000"`,
		0.00001: `value="0.00001"`,
		12.5:    `value="12.5"`,
	} {
		var buf bytes.Buffer
		products := []models.Product{{ID: 1, Name: "Safe", Price: price}}
		require.NoError(t, r.Render(&buf, "edit_product", Page{Data: map[string]any{"Products": products}}, nil))
		require.Contains(t, buf.String(), want)
	}
}
