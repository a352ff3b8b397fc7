package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"atelier/middleware"
	"atelier/models"
	"atelier/utils"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

type reviewResponse struct {
	models.Review
	Username string `json:"username" db:"username"`
}

func ListReviews(w http.ResponseWriter, r *http.Request) {
	b := QB.Select("reviews.id", "reviews.user_id", "reviews.product_id", "reviews.rating",
		"reviews.comment", "reviews.created_at", "reviews.updated_at", "users.username").
		From("reviews").
		Join("users ON users.id = reviews.user_id").
		OrderBy("reviews.created_at DESC")

	if v := r.URL.Query().Get("product_id"); v != "" {
		productID, err := uuid.Parse(v)
		if err != nil {
			utils.HandleError(w, http.StatusBadRequest, "Invalid product_id")
			return
		}
		b = b.Where(squirrel.Eq{"reviews.product_id": productID})
	}

	query, args, err := b.ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	reviews := []reviewResponse{}
	if err := db.Select(&reviews, query, args...); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to fetch reviews")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, reviews)
}

// CreateReview inserts one review per (user, product) and recomputes the
// product's rating and review_count from the fact rows in the same
// transaction.
func CreateReview(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.HandleError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var payload struct {
		ProductID uuid.UUID `json:"product_id"`
		Rating    int       `json:"rating"`
		Comment   string    `json:"comment"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.ProductID == uuid.Nil {
		utils.HandleError(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if payload.Rating < 1 || payload.Rating > 5 {
		utils.HandleError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}
	if payload.Comment == "" {
		utils.HandleError(w, http.StatusBadRequest, "comment is required")
		return
	}
	if _, ok := fetchProduct(w, payload.ProductID); !ok {
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to start transaction")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	defer tx.Rollback()

	now := time.Now()
	review := models.Review{
		ID:        uuid.New(),
		UserID:    claims.UserID,
		ProductID: payload.ProductID,
		Rating:    payload.Rating,
		Comment:   payload.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	query, args, err := QB.Insert("reviews").
		Columns("id", "user_id", "product_id", "rating", "comment", "created_at", "updated_at").
		Values(review.ID, review.UserID, review.ProductID, review.Rating, review.Comment,
			review.CreatedAt, review.UpdatedAt).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	if _, err := tx.Exec(query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			utils.HandleError(w, http.StatusConflict, "You have already reviewed this product")
			return
		}
		utils.HandleError(w, http.StatusInternalServerError, "Failed to create review")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	// rating is the arithmetic mean over all reviews for the product;
	// review_count is the row count. Recomputed from the fact rows, not
	// nudged incrementally.
	recompute := `
		UPDATE products SET
			rating = COALESCE((SELECT AVG(rating) FROM reviews WHERE product_id = $1), 0),
			review_count = (SELECT COUNT(*) FROM reviews WHERE product_id = $1)
		WHERE id = $1`
	if _, err := tx.Exec(recompute, payload.ProductID); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to update product rating")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	if err := tx.Commit(); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to commit transaction")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusCreated, review)
}
