package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mrperfect/storefront/internal/handler"
)

// registerAdmin registers the back-office endpoints.  Every route requires
// a valid JWT with the admin role.
func registerAdmin(e *echo.Echo, h Handlers, c chain) {
	a := c.admin

	// ---- Bookings ----
	e.GET("/bookings", h.Bookings.ListAll, a...)
	e.PUT("/bookings/:id/status", h.Bookings.UpdateStatus, a...)
	e.POST("/bookings/:id/payment-qr", h.Bookings.UploadPaymentQR, a...)
	e.DELETE("/bookings/:id", h.Bookings.Delete, a...)

	// ---- Orders ----
	// static segments win over /orders/:id in Echo's router
	e.POST("/orders/confirm", h.Orders.Confirm, a...)
	e.GET("/orders", h.Orders.ListAll, a...)
	e.GET("/orders/export", h.Orders.Export, a...)
	e.GET("/orders/:id", h.Orders.Get, a...)
	e.PUT("/orders/:id", h.Orders.UpdateStatus, a...)
	e.DELETE("/orders/:id", h.Orders.Delete, a...)

	// ---- Reviews ----
	e.GET("/reviews", h.Reviews.ListAll, a...)
	e.PUT("/reviews/:id/status", h.Reviews.SetStatus, a...)
	e.PUT("/reviews/:id/reply", h.Reviews.Reply, a...)
	e.DELETE("/reviews/:id", h.Reviews.Delete, a...)

	// ---- Users ----
	e.GET("/users", h.Users.List, a...)
	e.GET("/users/:id/orders", h.Orders.ListByUser, a...)
	e.DELETE("/users/:id", h.Users.Delete, a...)

	// ---- Catalogue ----
	e.POST("/products", h.Products.Create, a...)
	e.PUT("/products/:id", h.Products.Update, a...)
	e.DELETE("/products/:id", h.Products.Delete, a...)

	e.GET("/subscribers", h.Subscribers.List, a...)
	e.DELETE("/subscribers/:id", h.Subscribers.Delete, a...)
}

// registerChat mounts the support chat.  Shoppers write to their own thread
// and admins answer from /chats.
func registerChat(e *echo.Echo, ch *handler.ChatHandler, c chain) {
	e.POST("/chat/messages", ch.Send, with(c.shopper, c.writes...)...)
	e.GET("/chat/messages", ch.Mine, c.shopper...)

	g := e.Group("/chats")
	g.GET("", ch.List, c.admin...)
	g.GET("/:userId", ch.Get, c.admin...)
	g.POST("/:userId/messages", ch.Reply, c.admin...)
	g.DELETE("/:userId", ch.Delete, c.admin...)
}
