package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/mrperfect/storefront/internal/repository"
	"github.com/mrperfect/storefront/internal/service"
)

// dbTimeout bounds the database work of a single request.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

func okMsg(c echo.Context, status int, msg string, data any) error {
	body := echo.Map{"success": true, "message": msg}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

// respondErr maps domain and repository errors to a status.  Anything
// unrecognised is logged and reported as a bare 500.
func respondErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrEmptyCart):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotAuthenticated):
		return fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrPurchaseRequired),
		errors.Is(err, repository.ErrForbidden):
		return fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrBookingNotFound), errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrReviewNotFound), errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrProductNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrDuplicateReview), errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrConflict), errors.Is(err, repository.ErrConflict):
		return fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrDuplicate):
		return fail(c, http.StatusConflict, "already exists")
	case errors.Is(err, context.DeadlineExceeded):
		return fail(c, http.StatusServiceUnavailable, "request timed out")
	}
	c.Logger().Errorj(log.JSON{
		"event":  "request.failed",
		"method": c.Request().Method,
		"path":   c.Path(),
		"error":  err.Error(),
	})
	return fail(c, http.StatusInternalServerError, "internal error")
}

// CachePurger drops cached public responses for request paths.
type CachePurger interface {
	Purge(ctx context.Context, paths ...string) error
}

// purge evicts paths after a successful write.  A failure only leaves the
// entry to expire, so it is logged and the request still succeeds.
func purge(c echo.Context, cache CachePurger, paths ...string) {
	if cache == nil {
		return
	}
	if err := cache.Purge(c.Request().Context(), paths...); err != nil {
		c.Logger().Warnj(log.JSON{"event": "cache.purge_failed", "paths": paths, "error": err.Error()})
	}
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// queryUint parses an optional non-negative query parameter; def is used
// when it is absent or malformed.
func queryUint(c echo.Context, name string, def uint64) uint64 {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
