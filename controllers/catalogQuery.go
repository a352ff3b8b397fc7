package controllers

import (
	"fmt"
	"net/url"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
)

// Sort keys accepted by the product list endpoint. Anything else falls back
// to the catalog default (newest first).
const (
	SortPriceAsc   = "price_asc"
	SortPriceDesc  = "price_desc"
	SortPopularity = "popularity"
	SortNewest     = "newest"
	SortRating     = "rating"
)

type ProductFilters struct {
	Categories []string
	Materials  []string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	InStock    bool
	OnOffer    bool
	Search     string
	SortBy     string
}

// ParseProductFilters reads the catalog filter parameters from a query
// string. Multi-valued filters (category, material) may be repeated.
func ParseProductFilters(q url.Values) (ProductFilters, error) {
	f := ProductFilters{
		Categories: q["category"],
		Materials:  q["material"],
		InStock:    q.Get("in_stock") == "true",
		OnOffer:    q.Get("on_offer") == "true",
		Search:     q.Get("search"),
		SortBy:     q.Get("sort_by"),
	}

	if v := q.Get("min_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, fmt.Errorf("invalid min_price %q", v)
		}
		f.MinPrice = &d
	}
	if v := q.Get("max_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, fmt.Errorf("invalid max_price %q", v)
		}
		f.MaxPrice = &d
	}
	return f, nil
}

// activeOfferPredicate matches offers whose window contains now and that are
// flagged active.
func activeOfferPredicate(now time.Time) squirrel.And {
	return squirrel.And{
		squirrel.Eq{"offers.active": true},
		squirrel.LtOrEq{"offers.start_date": now},
		squirrel.GtOrEq{"offers.end_date": now},
	}
}

// buildProductListQuery turns the parsed filters into the catalog SELECT.
// Filters AND together; repeated values within category/material OR via IN.
// The on-offer join can yield one row per qualifying offer, so it forces
// DISTINCT.
func buildProductListQuery(f ProductFilters, now time.Time) squirrel.SelectBuilder {
	cols := make([]string, len(productColumns))
	for i, c := range productColumns {
		cols[i] = "products." + c
	}

	b := QB.Select(cols...).From("products")
	b = applyProductFilters(b, f, now)

	switch f.SortBy {
	case SortPriceAsc:
		b = b.OrderBy("products.price ASC")
	case SortPriceDesc:
		b = b.OrderBy("products.price DESC")
	case SortPopularity:
		b = b.OrderBy("products.likes DESC", "products.views DESC")
	case SortRating:
		b = b.OrderBy("products.rating DESC")
	default: // newest
		b = b.OrderBy("products.created_at DESC")
	}
	return b
}

// buildProductCountQuery mirrors the list filters for the pagination count.
func buildProductCountQuery(f ProductFilters, now time.Time) squirrel.SelectBuilder {
	b := QB.Select("COUNT(DISTINCT products.id)").From("products")
	return applyProductFilters(b, f, now)
}

func applyProductFilters(b squirrel.SelectBuilder, f ProductFilters, now time.Time) squirrel.SelectBuilder {
	if f.OnOffer {
		b = b.Distinct().
			Join("offer_products ON offer_products.product_id = products.id").
			Join("offers ON offers.id = offer_products.offer_id").
			Where(activeOfferPredicate(now))
	}
	if len(f.Categories) > 0 {
		b = b.Where(squirrel.Eq{"products.category": f.Categories})
	}
	if len(f.Materials) > 0 {
		b = b.Where(squirrel.Eq{"products.material": f.Materials})
	}
	if f.MinPrice != nil {
		b = b.Where(squirrel.GtOrEq{"products.price": *f.MinPrice})
	}
	if f.MaxPrice != nil {
		b = b.Where(squirrel.LtOrEq{"products.price": *f.MaxPrice})
	}
	if f.InStock {
		b = b.Where(squirrel.Eq{"products.availability": true}).Where(squirrel.Gt{"products.stock": 0})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		b = b.Where(squirrel.Or{
			squirrel.ILike{"products.name": pattern},
			squirrel.ILike{"products.description": pattern},
			squirrel.ILike{"products.category": pattern},
			squirrel.ILike{"products.material": pattern},
		})
	}
	return b
}
