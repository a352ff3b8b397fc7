package controllers

import (
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProductFilters(t *testing.T) {
	q := url.Values{}
	q.Add("category", "rings")
	q.Add("category", "necklaces")
	q.Add("material", "gold")
	q.Set("min_price", "50")
	q.Set("max_price", "200.50")
	q.Set("in_stock", "true")
	q.Set("on_offer", "true")
	q.Set("search", "pearl")
	q.Set("sort_by", "price_asc")

	f, err := ParseProductFilters(q)
	require.NoError(t, err)

	assert.Equal(t, []string{"rings", "necklaces"}, f.Categories)
	assert.Equal(t, []string{"gold"}, f.Materials)
	require.NotNil(t, f.MinPrice)
	assert.True(t, f.MinPrice.Equal(decimal.NewFromInt(50)))
	require.NotNil(t, f.MaxPrice)
	assert.True(t, f.MaxPrice.Equal(decimal.RequireFromString("200.50")))
	assert.True(t, f.InStock)
	assert.True(t, f.OnOffer)
	assert.Equal(t, "pearl", f.Search)
	assert.Equal(t, SortPriceAsc, f.SortBy)
}

func TestParseProductFiltersDefaults(t *testing.T) {
	f, err := ParseProductFilters(url.Values{})
	require.NoError(t, err)

	assert.Empty(t, f.Categories)
	assert.Empty(t, f.Materials)
	assert.Nil(t, f.MinPrice)
	assert.Nil(t, f.MaxPrice)
	assert.False(t, f.InStock)
	assert.False(t, f.OnOffer)
}

func TestParseProductFiltersBadPrice(t *testing.T) {
	q := url.Values{}
	q.Set("min_price", "cheap")
	_, err := ParseProductFilters(q)
	assert.Error(t, err)

	q = url.Values{}
	q.Set("max_price", "12,50")
	_, err = ParseProductFilters(q)
	assert.Error(t, err)
}

func TestBuildProductListQueryCombinesFilters(t *testing.T) {
	min := decimal.NewFromInt(50)
	f := ProductFilters{
		Categories: []string{"rings", "necklaces"},
		MinPrice:   &min,
	}

	sql, args, err := buildProductListQuery(f, time.Now()).ToSql()
	require.NoError(t, err)

	// multi-valued category ORs via IN, price ANDs on top
	assert.Contains(t, sql, "products.category IN ($1,$2)")
	assert.Contains(t, sql, "products.price >= $3")
	assert.Equal(t, []interface{}{"rings", "necklaces", min}, args)
}

func TestBuildProductListQueryOnOffer(t *testing.T) {
	now := time.Now()
	sql, args, err := buildProductListQuery(ProductFilters{OnOffer: true}, now).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "SELECT DISTINCT")
	assert.Contains(t, sql, "JOIN offer_products ON offer_products.product_id = products.id")
	assert.Contains(t, sql, "JOIN offers ON offers.id = offer_products.offer_id")
	assert.Contains(t, sql, "offers.active = $1")
	assert.Contains(t, sql, "offers.start_date <= $2")
	assert.Contains(t, sql, "offers.end_date >= $3")
	assert.Equal(t, []interface{}{true, now, now}, args)
}

func TestBuildProductListQueryInStock(t *testing.T) {
	sql, _, err := buildProductListQuery(ProductFilters{InStock: true}, time.Now()).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "products.availability = $1")
	assert.Contains(t, sql, "products.stock > $2")
}

func TestBuildProductListQuerySearch(t *testing.T) {
	sql, args, err := buildProductListQuery(ProductFilters{Search: "pearl"}, time.Now()).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "products.name ILIKE $1")
	assert.Contains(t, sql, "products.description ILIKE $2")
	assert.Equal(t, "%pearl%", args[0])
}

func TestBuildProductListQuerySorts(t *testing.T) {
	tests := []struct {
		sortBy  string
		orderBy string
	}{
		{SortPriceAsc, "ORDER BY products.price ASC"},
		{SortPriceDesc, "ORDER BY products.price DESC"},
		{SortPopularity, "ORDER BY products.likes DESC, products.views DESC"},
		{SortRating, "ORDER BY products.rating DESC"},
		{SortNewest, "ORDER BY products.created_at DESC"},
		{"", "ORDER BY products.created_at DESC"},
		{"bogus", "ORDER BY products.created_at DESC"},
	}

	for _, tt := range tests {
		sql, _, err := buildProductListQuery(ProductFilters{SortBy: tt.sortBy}, time.Now()).ToSql()
		require.NoError(t, err)
		assert.Contains(t, sql, tt.orderBy, "sort_by=%q", tt.sortBy)
	}
}

func TestBuildProductCountQuery(t *testing.T) {
	sql, _, err := buildProductCountQuery(ProductFilters{OnOffer: true}, time.Now()).ToSql()
	require.NoError(t, err)

	// counting distinct ids keeps products in multiple active offers from
	// double-counting
	assert.Contains(t, sql, "COUNT(DISTINCT products.id)")
	assert.NotContains(t, sql, "ORDER BY")
}

func TestParsePagination(t *testing.T) {
	p := parsePagination(url.Values{})
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, defaultPageSize, p.PageSize)
	assert.Equal(t, uint64(0), p.Offset())

	q := url.Values{}
	q.Set("page", "3")
	q.Set("page_size", "20")
	p = parsePagination(q)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, uint64(40), p.Offset())
	assert.Equal(t, uint64(20), p.Limit())

	q.Set("page_size", "5000")
	p = parsePagination(q)
	assert.Equal(t, maxPageSize, p.PageSize)

	q.Set("page", "-1")
	q.Set("page_size", "abc")
	p = parsePagination(q)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, defaultPageSize, p.PageSize)
}
