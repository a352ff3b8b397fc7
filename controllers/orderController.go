package controllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"atelier/middleware"
	"atelier/models"
	"atelier/utils"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type orderItemResponse struct {
	models.OrderItem
	ProductName string `json:"product_name" db:"product_name"`
}

type orderResponse struct {
	models.Order
	Items []orderItemResponse `json:"items"`
}

type orderItemPayload struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type orderPayload struct {
	Total           decimal.Decimal    `json:"total"`
	ShippingStreet  string             `json:"shipping_street"`
	ShippingCity    string             `json:"shipping_city"`
	ShippingState   string             `json:"shipping_state"`
	ShippingZipCode string             `json:"shipping_zip_code"`
	ShippingCountry string             `json:"shipping_country"`
	PaymentMethod   string             `json:"payment_method"`
	Items           []orderItemPayload `json:"items"`
}

func (p orderPayload) validate() error {
	if p.ShippingStreet == "" || p.ShippingCity == "" || p.ShippingState == "" ||
		p.ShippingZipCode == "" || p.ShippingCountry == "" {
		return errors.New("all shipping address fields are required")
	}
	if p.PaymentMethod == "" {
		return errors.New("payment_method is required")
	}
	if p.Total.IsNegative() {
		return errors.New("total cannot be negative")
	}
	if len(p.Items) == 0 {
		return errors.New("order must contain at least one item")
	}
	for _, item := range p.Items {
		if item.ProductID == uuid.Nil {
			return errors.New("product_id is required for every item")
		}
		if item.Quantity < 1 {
			return errors.New("quantity must be at least 1")
		}
		if item.Price.IsNegative() {
			return errors.New("item price cannot be negative")
		}
	}
	return nil
}

// CreateOrder persists the order header and all line items in a single
// transaction. Every referenced product is verified before any write, so a
// bad id leaves nothing behind. Line item prices are the caller-supplied
// point-in-time snapshot.
func CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.HandleError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var payload orderPayload
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := payload.validate(); err != nil {
		utils.HandleError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to start transaction")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	defer tx.Rollback()

	productIDs := make([]uuid.UUID, len(payload.Items))
	for i, item := range payload.Items {
		productIDs[i] = item.ProductID
	}
	missing, err := missingProductIDs(tx, productIDs)
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to verify products")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	if len(missing) > 0 {
		utils.HandleError(w, http.StatusNotFound, fmt.Sprintf("Product %s not found", missing[0]))
		return
	}

	productNames, err := productNamesByID(tx, productIDs)
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to fetch products")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	now := time.Now()
	query, args, err := QB.Insert("orders").
		Columns("id", "user_id", "status", "total", "shipping_street", "shipping_city",
			"shipping_state", "shipping_zip_code", "shipping_country", "payment_method",
			"created_at", "updated_at").
		Values(uuid.New(), claims.UserID, models.StatusPending, payload.Total,
			payload.ShippingStreet, payload.ShippingCity, payload.ShippingState,
			payload.ShippingZipCode, payload.ShippingCountry, payload.PaymentMethod, now, now).
		Suffix(fmt.Sprintf("RETURNING %s", strings.Join(orderColumns, ", "))).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	var order models.Order
	if err := tx.QueryRowx(query, args...).StructScan(&order); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Error creating order")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	items := make([]orderItemResponse, 0, len(payload.Items))
	for _, item := range payload.Items {
		row := models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
		query, args, err := QB.Insert("order_items").
			Columns("id", "order_id", "product_id", "quantity", "price").
			Values(row.ID, row.OrderID, row.ProductID, row.Quantity, row.Price).
			ToSql()
		if err != nil {
			utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
			log.Println(utils.ErrorWithTrace(err, err.Error()))
			return
		}
		if _, err := tx.Exec(query, args...); err != nil {
			utils.HandleError(w, http.StatusInternalServerError, "Error creating order item")
			log.Println(utils.ErrorWithTrace(err, err.Error()))
			return
		}
		items = append(items, orderItemResponse{OrderItem: row, ProductName: productNames[row.ProductID]})
	}

	if err := tx.Commit(); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to commit transaction")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusCreated, orderResponse{Order: order, Items: items})
}

// ListOrders returns the caller's orders, or every order for staff roles.
func ListOrders(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.HandleError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	b := QB.Select(orderColumns...).From("orders").OrderBy("created_at DESC")
	if !claims.Role.CanManageOrders() {
		b = b.Where(squirrel.Eq{"user_id": claims.UserID})
	}

	query, args, err := b.ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	var orders []models.Order
	if err := db.Select(&orders, query, args...); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to fetch orders")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	orderIDs := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
	}
	itemsByOrder, err := loadOrderItems(orderIDs)
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to fetch order items")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	results := make([]orderResponse, len(orders))
	for i, o := range orders {
		items := itemsByOrder[o.ID]
		if items == nil {
			items = []orderItemResponse{}
		}
		results[i] = orderResponse{Order: o, Items: items}
	}

	utils.SendJSONResponse(w, http.StatusOK, results)
}

// GetOrder returns one order. Customers only ever see their own rows; a
// foreign id reads as not found.
func GetOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.HandleError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.HandleError(w, http.StatusNotFound, "Order not found")
		return
	}

	b := QB.Select(orderColumns...).From("orders").Where(squirrel.Eq{"id": orderID})
	if !claims.Role.CanManageOrders() {
		b = b.Where(squirrel.Eq{"user_id": claims.UserID})
	}

	query, args, err := b.ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	var order models.Order
	if err := db.Get(&order, query, args...); err != nil {
		utils.HandleError(w, http.StatusNotFound, "Order not found")
		return
	}

	itemsByOrder, err := loadOrderItems([]uuid.UUID{order.ID})
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to fetch order items")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	items := itemsByOrder[order.ID]
	if items == nil {
		items = []orderItemResponse{}
	}

	utils.SendJSONResponse(w, http.StatusOK, orderResponse{Order: order, Items: items})
}

// UpdateOrderStatus moves an order along its lifecycle. Staff only; invalid
// transitions are rejected without touching the row.
func UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.HandleError(w, http.StatusNotFound, "Order not found")
		return
	}

	var payload struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !payload.Status.Valid() {
		utils.HandleError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	query, args, err := QB.Select(orderColumns...).From("orders").
		Where(squirrel.Eq{"id": orderID}).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	var order models.Order
	if err := db.Get(&order, query, args...); err != nil {
		utils.HandleError(w, http.StatusNotFound, "Order not found")
		return
	}

	if !order.Status.CanTransitionTo(payload.Status) {
		utils.HandleError(w, http.StatusBadRequest,
			fmt.Sprintf("Cannot change status from %s to %s", order.Status, payload.Status))
		return
	}

	query, args, err = QB.Update("orders").
		Set("status", payload.Status).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": orderID}).
		Suffix(fmt.Sprintf("RETURNING %s", strings.Join(orderColumns, ", "))).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	if err := db.QueryRowx(query, args...).StructScan(&order); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Error updating order status")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, order)
}

func loadOrderItems(orderIDs []uuid.UUID) (map[uuid.UUID][]orderItemResponse, error) {
	items := map[uuid.UUID][]orderItemResponse{}
	if len(orderIDs) == 0 {
		return items, nil
	}

	query, args, err := QB.Select("order_items.id", "order_items.order_id", "order_items.product_id",
		"order_items.quantity", "order_items.price", "products.name AS product_name").
		From("order_items").
		Join("products ON products.id = order_items.product_id").
		Where(squirrel.Eq{"order_items.order_id": orderIDs}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []orderItemResponse
	if err := db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	for _, item := range rows {
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	return items, nil
}

func productNamesByID(tx *sqlx.Tx, productIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	query, args, err := QB.Select("id", "name").From("products").
		Where(squirrel.Eq{"id": productIDs}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ID   uuid.UUID `db:"id"`
		Name string    `db:"name"`
	}
	if err := tx.Select(&rows, query, args...); err != nil {
		return nil, err
	}

	names := map[uuid.UUID]string{}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}
