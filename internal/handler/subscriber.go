package handler

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mrperfect/storefront/internal/model"
	"github.com/mrperfect/storefront/internal/repository"
)

type SubscriberStore interface {
	Create(ctx context.Context, email string) (model.Subscriber, error)
	List(ctx context.Context) ([]model.Subscriber, error)
	Delete(ctx context.Context, id uint64) error
}

// SubscriberHandler runs the newsletter list.
type SubscriberHandler struct {
	Subscribers SubscriberStore
}

func NewSubscriberHandler(s SubscriberStore) *SubscriberHandler {
	return &SubscriberHandler{Subscribers: s}
}

type subscribeReq struct {
	Email string `json:"email"`
}

func (h *SubscriberHandler) Subscribe(c echo.Context) error {
	var req subscribeReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return fail(c, http.StatusBadRequest, "a valid email is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sub, err := h.Subscribers.Create(ctx, email)
	if errors.Is(err, repository.ErrDuplicate) {
		return fail(c, http.StatusConflict, "email already subscribed")
	}
	if err != nil {
		return respondErr(c, err)
	}
	return okMsg(c, http.StatusCreated, "Subscribed successfully", sub)
}

func (h *SubscriberHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Subscribers.List(ctx)
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, list)
}

func (h *SubscriberHandler) Delete(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid subscriber id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Subscribers.Delete(ctx, id); err != nil {
		return respondErr(c, err)
	}
	return okMsg(c, http.StatusOK, "Subscriber removed", nil)
}
