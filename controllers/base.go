package controllers

import (
	"net/url"
	"strconv"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var (
	db *sqlx.DB
	QB = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	userColumns = []string{"id", "username", "email", "password", "first_name", "last_name", "role", "phone", "created_at", "updated_at"}

	productColumns = []string{
		"id", "name", "description", "price", "original_price", "category", "material",
		"availability", "stock", "likes", "views", "rating", "review_count", "created_at", "updated_at",
	}

	offerColumns = []string{"id", "title", "description", "discount_percentage", "start_date", "end_date", "active", "created_at"}

	orderColumns = []string{
		"id", "user_id", "status", "total", "shipping_street", "shipping_city", "shipping_state",
		"shipping_zip_code", "shipping_country", "payment_method", "created_at", "updated_at",
	}
)

func SetDB(database *sqlx.DB) {
	db = database
}

const (
	defaultPageSize = 12
	maxPageSize     = 100
)

type pagination struct {
	Page     int
	PageSize int
}

func (p pagination) Limit() uint64  { return uint64(p.PageSize) }
func (p pagination) Offset() uint64 { return uint64((p.Page - 1) * p.PageSize) }

// parsePagination reads page/page_size query parameters, clamping to sane
// bounds. Malformed values fall back to the defaults.
func parsePagination(q url.Values) pagination {
	p := pagination{Page: 1, PageSize: defaultPageSize}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil && v > 0 {
		p.PageSize = v
		if p.PageSize > maxPageSize {
			p.PageSize = maxPageSize
		}
	}
	return p
}

type pagedResponse struct {
	Count    int         `json:"count"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Results  interface{} `json:"results"`
}
