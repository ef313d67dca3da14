package model

import (
    "strings"
    "time"

    "github.com/shopspring/decimal"
)

// Product is a catalog entry.  TotalStock is only decremented by order
// confirmation; admins overwrite it through product updates.
type Product struct {
    ID          uint64              `json:"id"`
    Title       string              `json:"title"`
    Description string              `json:"description"`
    Image       string              `json:"image"`
    Category    string              `json:"category"`
    Brand       string              `json:"brand"`
    Price       decimal.Decimal     `json:"price"`
    SalePrice   decimal.NullDecimal `json:"salePrice"`
    Sizes       []string            `json:"sizes"`
    TotalStock  int                 `json:"totalStock"`
    CreatedAt   time.Time           `json:"createdAt"`
}

// EffectivePrice is the sale price when one is set and positive, otherwise
// the list price.
func (p Product) EffectivePrice() decimal.Decimal {
    if p.SalePrice.Valid && p.SalePrice.Decimal.IsPositive() {
        return p.SalePrice.Decimal
    }
    return p.Price
}

// HasSize reports whether size is offered.  A product without a size list
// accepts any size.
func (p Product) HasSize(size string) bool {
    if len(p.Sizes) == 0 {
        return true
    }
    for _, s := range p.Sizes {
        if strings.EqualFold(s, size) {
            return true
        }
    }
    return false
}

// JoinSizes and SplitSizes convert between the API list and the
// comma-separated products.sizes column.
func JoinSizes(sizes []string) string {
    out := make([]string, 0, len(sizes))
    for _, s := range sizes {
        if s = strings.TrimSpace(s); s != "" {
            out = append(out, s)
        }
    }
    return strings.Join(out, ",")
}

func SplitSizes(col string) []string {
    if strings.TrimSpace(col) == "" {
        return []string{}
    }
    parts := strings.Split(col, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
