package middleware // middleware holds the request filters shared by the route groups

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/mrperfect/storefront/internal/service"
    "github.com/mrperfect/storefront/internal/utils"
)

// JWTAuth validates the Bearer access token and stores the caller in the
// context: "user_id" (decimal string), "role" and "identity"
// (service.Identity).  Wrap every non-public group with it.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return unauthorized(c, "missing bearer token")
            }
            sub, err := utils.ParseAccessToken(secret, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
            if err != nil {
                return unauthorized(c, "invalid token")
            }
            c.Set("user_id", strconv.FormatUint(sub.UserID, 10))
            c.Set("role", sub.Role)
            c.Set(identityKey, service.Identity{
                ID:       sub.UserID,
                UserName: sub.UserName,
                Email:    sub.Email,
                Phone:    sub.Phone,
                Role:     sub.Role,
            })
            return next(c)
        }
    }
}

func unauthorized(c echo.Context, msg string) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": msg})
}
