package router // router wires handlers and middleware onto the Echo instance

import (
	"github.com/labstack/echo/v4"

	"github.com/mrperfect/storefront/internal/handler"
	"github.com/mrperfect/storefront/internal/middleware"
	"github.com/mrperfect/storefront/internal/model"
)

// Handlers bundles everything the router mounts.  Chat is nil when MongoDB
// is not configured and its routes are then left out.
type Handlers struct {
	Auth        *handler.AuthHandler
	Bookings    *handler.BookingHandler
	Orders      *handler.OrderHandler
	Reviews     *handler.ReviewHandler
	Addresses   *handler.AddressHandler
	Products    *handler.ProductHandler
	Carts       *handler.CartHandler
	Users       *handler.UserHandler
	Subscribers *handler.SubscriberHandler
	Chat        *handler.ChatHandler
	DB          handler.Pinger
}

// Options carries the per-route middleware built in main.  Nil entries are
// skipped.
type Options struct {
	JWTSecret string
	Writes    echo.MiddlewareFunc // tighter rate-limit bucket for write endpoints
	Cache     echo.MiddlewareFunc // response cache for public reads
}

// chain holds the middleware lists shared by the Register* functions.
type chain struct {
	shopper []echo.MiddlewareFunc
	admin   []echo.MiddlewareFunc
	anyRole []echo.MiddlewareFunc
	writes  []echo.MiddlewareFunc
	cache   []echo.MiddlewareFunc
}

func newChain(o Options) chain {
	jwt := middleware.JWTAuth(o.JWTSecret)
	c := chain{
		shopper: []echo.MiddlewareFunc{jwt, middleware.RequireRole(model.RoleShopper)},
		admin:   []echo.MiddlewareFunc{jwt, middleware.RequireRole(model.RoleAdmin)},
		anyRole: []echo.MiddlewareFunc{jwt, middleware.RequireRole(model.RoleShopper, model.RoleAdmin)},
	}
	if o.Writes != nil {
		c.writes = []echo.MiddlewareFunc{o.Writes}
	}
	if o.Cache != nil {
		c.cache = []echo.MiddlewareFunc{o.Cache}
	}
	return c
}

// with appends extra middleware to a copy of base.
func with(base []echo.MiddlewareFunc, extra ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

// Register mounts every storefront route.  Groups are created without
// group-level middleware; each route carries its own chain so public and
// protected endpoints can share a prefix.
func Register(e *echo.Echo, h Handlers, o Options) {
	c := newChain(o)
	registerPublic(e, h, c)
	registerAuth(e, h.Auth, c)
	registerShopper(e, h, c)
	registerAdmin(e, h, c)
	if h.Chat != nil {
		registerChat(e, h.Chat, c)
	}
}

// registerPublic exposes the unauthenticated endpoints.
func registerPublic(e *echo.Echo, h Handlers, c chain) {
	e.GET("/healthz", handler.Health(h.DB))

	e.GET("/products", h.Products.List, c.cache...)
	e.GET("/products/:id", h.Products.Get, c.cache...)
	e.GET("/reviews/:productId", h.Reviews.ListForProduct, c.cache...)

	e.POST("/subscribers", h.Subscribers.Subscribe, c.writes...)
}

// registerAuth mounts the session endpoints under /auth plus GET /me.
func registerAuth(e *echo.Echo, a *handler.AuthHandler, c chain) {
	g := e.Group("/auth")
	g.POST("/register", a.Register, c.writes...)
	g.POST("/login", a.Login, c.writes...)
	// rotates the refresh token
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// accepts a refresh token in the body or a bearer access token
	g.POST("/logout", a.Logout)

	e.GET("/me", a.Me, c.anyRole...)
}
