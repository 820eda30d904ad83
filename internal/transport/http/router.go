package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/middleware/auth"
)

type Deps struct {
	Gate *auth.Gate

	AuthHandler     *AuthHTTP
	CatalogHandler  *CatalogHTTP
	CheckoutHandler *CheckoutHTTP
	APIHandler      *APIHTTP
	HealthHandler   *HealthHTTP

	// Optional; nil disables the middleware.
	CSRF         echo.MiddlewareFunc
	LoginLimiter echo.MiddlewareFunc
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", d.HealthHandler.Live)
	e.GET("/health/ready", d.HealthHandler.Ready)

	siteMW := []echo.MiddlewareFunc{d.Gate.Load}
	if d.CSRF != nil {
		siteMW = append(siteMW, d.CSRF)
	}
	var limited []echo.MiddlewareFunc
	if d.LoginLimiter != nil {
		limited = append(limited, d.LoginLimiter)
	}

	site := e.Group("", siteMW...)
	site.GET("/", d.AuthHandler.Root)
	site.GET("/login", d.AuthHandler.LoginPage)
	site.POST("/login", d.AuthHandler.Login, limited...)
	site.GET("/register", d.AuthHandler.RegisterPage)
	site.POST("/register", d.AuthHandler.Register, limited...)
	site.GET("/logout", d.AuthHandler.LogOut)

	member := d.Gate.Require(auth.Authenticated)
	site.GET("/home", d.CatalogHandler.Home, member)
	site.GET("/shipping_details/:id", d.CheckoutHandler.ShippingPage, member)
	site.POST("/shipping_details/:id", d.CheckoutHandler.SubmitShipping, member)
	site.GET("/order_confirmation", d.CheckoutHandler.Confirmation, member)

	admin := d.Gate.Require(auth.Admin)
	site.GET("/admin", d.CatalogHandler.Admin, admin)
	site.GET("/edit_product", d.CatalogHandler.EditProducts, admin)
	site.POST("/update_product/:id", d.CatalogHandler.UpdateProduct, admin)
	site.GET("/add_product", d.CatalogHandler.AddProductPage, admin)
	site.POST("/add_product", d.CatalogHandler.AddProduct, admin)

	api := e.Group("/api/v1", d.Gate.Load, d.Gate.RequireAPI(auth.Authenticated))
	api.GET("/products", d.APIHandler.GetProducts)
	api.GET("/products/search", d.APIHandler.SearchProducts)
	api.GET("/products/:id", d.APIHandler.GetProduct)
}
