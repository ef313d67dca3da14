package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mrperfect/storefront/internal/middleware"
	"github.com/mrperfect/storefront/internal/model"
	"github.com/mrperfect/storefront/internal/service"
)

type Reviews interface {
	AddReview(ctx context.Context, who service.Identity, req service.ReviewRequest) (model.ProductReview, error)
	GetReviews(ctx context.Context, productID uint64) ([]model.ProductReview, error)
	ListAll(ctx context.Context, f model.ReviewFilter) ([]model.ProductReview, error)
	SetStatus(ctx context.Context, id uint64, status string) (model.ProductReview, error)
	SetReply(ctx context.Context, id uint64, reply string) (model.ProductReview, error)
	Delete(ctx context.Context, id uint64) (model.ProductReview, error)
}

// ReviewHandler serves reviews.  Moderation evicts the product's cached
// public listing so a rejected or deleted review disappears at once.
type ReviewHandler struct {
	Reviews Reviews
	Cache   CachePurger
}

func NewReviewHandler(r Reviews, cache CachePurger) *ReviewHandler {
	return &ReviewHandler{Reviews: r, Cache: cache}
}

func reviewsPath(productID uint64) string {
	return "/reviews/" + strconv.FormatUint(productID, 10)
}

func (h *ReviewHandler) Add(c echo.Context) error {
	var req service.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rv, err := h.Reviews.AddReview(ctx, middleware.IdentityFrom(c), req)
	if err != nil {
		return respondErr(c, err)
	}
	return okMsg(c, http.StatusCreated, "Review submitted for approval", rv)
}

// ListForProduct is the public listing; only approved reviews appear.
func (h *ReviewHandler) ListForProduct(c echo.Context) error {
	id, valid := pathID(c, "productId")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid product id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Reviews.GetReviews(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, list)
}

func (h *ReviewHandler) ListAll(c echo.Context) error {
	f := model.ReviewFilter{
		ProductID: queryUint(c, "productId", 0),
		Status:    strings.ToLower(strings.TrimSpace(c.QueryParam("status"))),
		Limit:     queryUint(c, "limit", 0),
		Offset:    queryUint(c, "offset", 0),
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Reviews.ListAll(ctx, f)
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, list)
}

type reviewStatusReq struct {
	Status string `json:"status"`
}

func (h *ReviewHandler) SetStatus(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid review id")
	}
	var req reviewStatusReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rv, err := h.Reviews.SetStatus(ctx, id, req.Status)
	if err != nil {
		return respondErr(c, err)
	}
	purge(c, h.Cache, reviewsPath(rv.ProductID))
	return okMsg(c, http.StatusOK, "Review "+rv.Status, rv)
}

type reviewReplyReq struct {
	Reply string `json:"reply"`
}

func (h *ReviewHandler) Reply(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid review id")
	}
	var req reviewReplyReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rv, err := h.Reviews.SetReply(ctx, id, req.Reply)
	if err != nil {
		return respondErr(c, err)
	}
	purge(c, h.Cache, reviewsPath(rv.ProductID))
	return okMsg(c, http.StatusOK, "Reply saved", rv)
}

func (h *ReviewHandler) Delete(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid review id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rv, err := h.Reviews.Delete(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	purge(c, h.Cache, reviewsPath(rv.ProductID))
	return okMsg(c, http.StatusOK, "Review deleted", nil)
}
