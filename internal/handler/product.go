package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/mrperfect/storefront/internal/model"
	"github.com/mrperfect/storefront/internal/repository"
)

type ProductStore interface {
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id uint64) error
	GetByID(ctx context.Context, id uint64) (model.Product, error)
	List(ctx context.Context, f repository.ProductFilter) ([]model.Product, error)
}

type ProductHandler struct {
	Products ProductStore
	Cache    CachePurger
}

func NewProductHandler(p ProductStore, cache CachePurger) *ProductHandler {
	return &ProductHandler{Products: p, Cache: cache}
}

type productReq struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Image       string              `json:"image"`
	Category    string              `json:"category"`
	Brand       string              `json:"brand"`
	Price       decimal.Decimal     `json:"price"`
	SalePrice   decimal.NullDecimal `json:"salePrice"`
	Sizes       []string            `json:"sizes"`
	TotalStock  int                 `json:"totalStock"`
}

func (r productReq) product() (model.Product, string) {
	p := model.Product{
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Image:       r.Image,
		Category:    strings.TrimSpace(r.Category),
		Brand:       strings.TrimSpace(r.Brand),
		Price:       r.Price,
		SalePrice:   r.SalePrice,
		Sizes:       model.SplitSizes(model.JoinSizes(r.Sizes)),
		TotalStock:  r.TotalStock,
	}
	switch {
	case p.Title == "":
		return p, "title is required"
	case p.Price.IsNegative():
		return p, "price must not be negative"
	case p.SalePrice.Valid && p.SalePrice.Decimal.IsNegative():
		return p, "salePrice must not be negative"
	case p.TotalStock < 0:
		return p, "totalStock must not be negative"
	}
	return p, ""
}

func (h *ProductHandler) List(c echo.Context) error {
	f := repository.ProductFilter{
		Category: strings.TrimSpace(c.QueryParam("category")),
		Brand:    strings.TrimSpace(c.QueryParam("brand")),
		Limit:    queryUint(c, "limit", 0),
		Offset:   queryUint(c, "offset", 0),
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Products.List(ctx, f)
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, list)
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid product id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, p)
}

func (h *ProductHandler) Create(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	p, problem := req.product()
	if problem != "" {
		return fail(c, http.StatusBadRequest, problem)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Products.Create(ctx, &p); err != nil {
		return respondErr(c, err)
	}
	purge(c, h.Cache, "/products")
	return okMsg(c, http.StatusCreated, "Product added", p)
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid product id")
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	p, problem := req.product()
	if problem != "" {
		return fail(c, http.StatusBadRequest, problem)
	}
	p.ID = id
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Products.Update(ctx, &p); err != nil {
		return respondErr(c, err)
	}
	purge(c, h.Cache, "/products", "/products/"+strconv.FormatUint(id, 10))
	updated, err := h.Products.GetByID(ctx, id)
	if err != nil {
		return respondErr(c, err)
	}
	return okMsg(c, http.StatusOK, "Product updated", updated)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid product id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Products.Delete(ctx, id); err != nil {
		return respondErr(c, err)
	}
	purge(c, h.Cache, "/products", "/products/"+strconv.FormatUint(id, 10))
	return okMsg(c, http.StatusOK, "Product deleted", nil)
}
