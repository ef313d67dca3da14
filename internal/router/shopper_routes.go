package router

import (
	"github.com/labstack/echo/v4"
)

// registerShopper registers the endpoints a signed-in shopper uses.  Writes
// that create rows also pass through the "writes" rate-limit bucket.
func registerShopper(e *echo.Echo, h Handlers, c chain) {
	write := with(c.shopper, c.writes...)

	e.POST("/bookings", h.Bookings.Create, write...)
	e.GET("/bookings/mine", h.Bookings.ListMine, c.shopper...)
	e.DELETE("/bookings/mine/:id", h.Bookings.DeleteMine, c.shopper...)

	e.POST("/orders", h.Orders.Create, write...)
	e.GET("/orders/mine", h.Orders.ListMine, c.shopper...)
	e.GET("/orders/mine/:id", h.Orders.GetMine, c.shopper...)

	e.POST("/reviews", h.Reviews.Add, write...)

	e.GET("/addresses", h.Addresses.List, c.shopper...)
	e.POST("/addresses", h.Addresses.Create, write...)

	e.GET("/cart", h.Carts.Get, c.shopper...)
	e.PUT("/cart", h.Carts.Put, c.shopper...)
}
