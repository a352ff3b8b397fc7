package controllers

import (
	"log"
	"net/http"
	"time"

	"atelier/utils"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type topProduct struct {
	ProductID   uuid.UUID       `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	TotalSold   int             `json:"total_sold" db:"total_sold"`
	Revenue     decimal.Decimal `json:"revenue" db:"revenue"`
}

type salesSummary struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalOrders       int             `json:"total_orders"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	TopProducts       []topProduct    `json:"top_products"`
}

// SalesAnalytics aggregates delivered orders, optionally restricted to a
// [start_date, end_date] window.
func SalesAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	startDate, err := parseDateParam(q.Get("start_date"))
	if err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid start_date")
		return
	}
	endDate, err := parseDateParam(q.Get("end_date"))
	if err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid end_date")
		return
	}

	query, args, err := QB.Select("COALESCE(SUM(total), 0) AS total_revenue", "COUNT(*) AS total_orders").
		From("orders").
		Where(deliveredOrderFilter("", startDate, endDate)).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	var totals struct {
		TotalRevenue decimal.Decimal `db:"total_revenue"`
		TotalOrders  int             `db:"total_orders"`
	}
	if err := db.Get(&totals, query, args...); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to aggregate orders")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	query, args, err = QB.Select("products.id AS product_id", "products.name AS product_name",
		"COALESCE(SUM(order_items.quantity), 0) AS total_sold",
		"COALESCE(SUM(order_items.price), 0) AS revenue").
		From("order_items").
		Join("orders ON orders.id = order_items.order_id").
		Join("products ON products.id = order_items.product_id").
		Where(deliveredOrderFilter("orders.", startDate, endDate)).
		GroupBy("products.id", "products.name").
		OrderBy("revenue DESC", "products.name ASC").
		Limit(10).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	topProducts := []topProduct{}
	if err := db.Select(&topProducts, query, args...); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to fetch top products")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, salesSummary{
		TotalRevenue:      totals.TotalRevenue,
		TotalOrders:       totals.TotalOrders,
		AverageOrderValue: averageOrderValue(totals.TotalRevenue, totals.TotalOrders),
		TopProducts:       topProducts,
	})
}

// ProductAnalytics reports cumulative delivered sales for one product plus
// its live engagement counters.
func ProductAnalytics(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.HandleError(w, http.StatusNotFound, "Product not found")
		return
	}
	product, ok := fetchProduct(w, productID)
	if !ok {
		return
	}

	query, args, err := QB.Select("COALESCE(SUM(order_items.quantity), 0) AS total_sold",
		"COALESCE(SUM(order_items.price), 0) AS revenue").
		From("order_items").
		Join("orders ON orders.id = order_items.order_id").
		Where(squirrel.Eq{"order_items.product_id": productID, "orders.status": "delivered"}).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	var sales struct {
		TotalSold int             `db:"total_sold"`
		Revenue   decimal.Decimal `db:"revenue"`
	}
	if err := db.Get(&sales, query, args...); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to aggregate sales")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, map[string]interface{}{
		"product_id":   product.ID,
		"product_name": product.Name,
		"views":        product.Views,
		"likes":        product.Likes,
		"total_sold":   sales.TotalSold,
		"revenue":      sales.Revenue,
		"rating":       product.Rating,
		"review_count": product.ReviewCount,
	})
}

// averageOrderValue guards the zero-orders case instead of dividing by zero.
func averageOrderValue(revenue decimal.Decimal, orders int) decimal.Decimal {
	if orders == 0 {
		return decimal.Zero
	}
	return revenue.DivRound(decimal.NewFromInt(int64(orders)), 2)
}

// deliveredOrderFilter builds the delivered-in-window predicate. prefix
// qualifies the order columns when the query joins other tables.
func deliveredOrderFilter(prefix string, startDate, endDate *time.Time) squirrel.And {
	filter := squirrel.And{squirrel.Eq{prefix + "status": "delivered"}}
	if startDate != nil {
		filter = append(filter, squirrel.GtOrEq{prefix + "created_at": *startDate})
	}
	if endDate != nil {
		filter = append(filter, squirrel.LtOrEq{prefix + "created_at": *endDate})
	}
	return filter
}

// parseDateParam accepts RFC3339 timestamps or plain dates. Empty input
// means the bound is open.
func parseDateParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
