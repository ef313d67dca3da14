package middleware

import (
    "github.com/labstack/echo/v4"

    "github.com/mrperfect/storefront/internal/service"
)

const identityKey = "identity"

// IdentityFrom returns the caller stored by JWTAuth, or the zero Identity on
// public routes.
func IdentityFrom(c echo.Context) service.Identity {
    if id, ok := c.Get(identityKey).(service.Identity); ok {
        return id
    }
    return service.Identity{}
}

// userID is the rate limit key part for the caller; "anon" before JWTAuth
// has run.
func userID(c echo.Context) string {
    if s, ok := c.Get("user_id").(string); ok && s != "" {
        return s
    }
    return "anon"
}
