package controllers

import (
	"log"
	"net/http"
	"time"

	"atelier/middleware"
	"atelier/models"
	"atelier/utils"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type wishlistResponse struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	ProductID       uuid.UUID       `json:"product_id" db:"product_id"`
	ProductName     string          `json:"product_name" db:"product_name"`
	ProductPrice    decimal.Decimal `json:"product_price" db:"product_price"`
	ProductCategory string          `json:"product_category" db:"product_category"`
	AddedAt         time.Time       `json:"added_at" db:"added_at"`
}

func ListWishlist(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.HandleError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	query, args, err := QB.Select("wishlists.id", "wishlists.product_id", "wishlists.added_at",
		"products.name AS product_name", "products.price AS product_price",
		"products.category AS product_category").
		From("wishlists").
		Join("products ON products.id = wishlists.product_id").
		Where(squirrel.Eq{"wishlists.user_id": claims.UserID}).
		OrderBy("wishlists.added_at DESC").
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	entries := []wishlistResponse{}
	if err := db.Select(&entries, query, args...); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to fetch wishlist")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, entries)
}

// AddToWishlist is get-or-create: adding a product twice is not an error.
func AddToWishlist(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.HandleError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var payload struct {
		ProductID uuid.UUID `json:"product_id"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil || payload.ProductID == uuid.Nil {
		utils.HandleError(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if _, ok := fetchProduct(w, payload.ProductID); !ok {
		return
	}

	query, args, err := QB.Select("id").From("wishlists").
		Where(squirrel.Eq{"user_id": claims.UserID, "product_id": payload.ProductID}).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	var existingID uuid.UUID
	if err := db.Get(&existingID, query, args...); err == nil {
		utils.SendJSONResponse(w, http.StatusOK, map[string]string{
			"message": "Product already in wishlist",
		})
		return
	}

	entry := models.Wishlist{
		ID:        uuid.New(),
		UserID:    claims.UserID,
		ProductID: payload.ProductID,
		AddedAt:   time.Now(),
	}
	query, args, err = QB.Insert("wishlists").
		Columns("id", "user_id", "product_id", "added_at").
		Values(entry.ID, entry.UserID, entry.ProductID, entry.AddedAt).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	if _, err := db.Exec(query, args...); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to add to wishlist")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusCreated, entry)
}

func RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.HandleError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	entryID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.HandleError(w, http.StatusNotFound, "Wishlist entry not found")
		return
	}

	query, args, err := QB.Delete("wishlists").
		Where(squirrel.Eq{"id": entryID, "user_id": claims.UserID}).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	result, err := db.Exec(query, args...)
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to remove from wishlist")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		utils.HandleError(w, http.StatusNotFound, "Wishlist entry not found")
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, map[string]string{
		"message": "Product removed from wishlist",
	})
}
