package controllers

import (
	"database/sql"
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

// offerBadge is the read-time view of a product's currently-active offer.
// It is computed per request from the offer window and never stored.
type offerBadge struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	Title              string          `json:"title" db:"title"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" db:"discount_percentage"`
	EndDate            time.Time       `json:"end_date" db:"end_date"`
	ProductID          uuid.UUID       `json:"-" db:"product_id"`
}

type productResponse struct {
	models.Product
	Images []models.ProductImage `json:"images"`
	Offer  *offerBadge           `json:"offer"`
}

func ListProducts(w http.ResponseWriter, r *http.Request) {
	filters, err := ParseProductFilters(r.URL.Query())
	if err != nil {
		utils.HandleError(w, http.StatusBadRequest, err.Error())
		return
	}
	pg := parsePagination(r.URL.Query())
	now := time.Now()

	query, args, err := buildProductCountQuery(filters, now).ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	var count int
	if err := db.Get(&count, query, args...); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to count products")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	query, args, err = buildProductListQuery(filters, now).
		Limit(pg.Limit()).
		Offset(pg.Offset()).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	var products []models.Product
	if err := db.Select(&products, query, args...); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to fetch products")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	ids := make([]uuid.UUID, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	firstImages, err := loadFirstImages(ids)
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to fetch product images")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	offers, err := loadActiveOffers(ids, now)
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to fetch offers")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	results := make([]productResponse, len(products))
	for i, p := range products {
		resp := productResponse{Product: p, Images: []models.ProductImage{}}
		if img, ok := firstImages[p.ID]; ok {
			resp.Images = append(resp.Images, img)
		}
		if offer, ok := offers[p.ID]; ok {
			resp.Offer = &offer
		}
		results[i] = resp
	}

	utils.SendJSONResponse(w, http.StatusOK, pagedResponse{
		Count:    count,
		Page:     pg.Page,
		PageSize: pg.PageSize,
		Results:  results,
	})
}

func GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.HandleError(w, http.StatusNotFound, "Product not found")
		return
	}

	product, ok := fetchProduct(w, productID)
	if !ok {
		return
	}

	query, args, err := QB.Select("id", "product_id", "image_url", "alt_text", "image_order").
		From("product_images").
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("image_order").
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	images := []models.ProductImage{}
	if err := db.Select(&images, query, args...); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to fetch product images")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	offers, err := loadActiveOffers([]uuid.UUID{productID}, time.Now())
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to fetch offers")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	resp := productResponse{Product: product, Images: images}
	if offer, ok := offers[productID]; ok {
		resp.Offer = &offer
	}
	utils.SendJSONResponse(w, http.StatusOK, resp)
}

type productImagePayload struct {
	ImageURL string `json:"image_url"`
	AltText  string `json:"alt_text"`
	Order    int    `json:"order"`
}

type productPayload struct {
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	Price         decimal.Decimal       `json:"price"`
	OriginalPrice *decimal.Decimal      `json:"original_price"`
	Category      string                `json:"category"`
	Material      string                `json:"material"`
	Availability  *bool                 `json:"availability"`
	Stock         int                   `json:"stock"`
	Images        []productImagePayload `json:"images"`
}

func (p productPayload) validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.Description == "" {
		return errors.New("description is required")
	}
	if !p.Price.IsPositive() {
		return errors.New("price must be greater than zero")
	}
	if !models.ValidCategory(p.Category) {
		return fmt.Errorf("invalid category %q", p.Category)
	}
	if !models.ValidMaterial(p.Material) {
		return fmt.Errorf("invalid material %q", p.Material)
	}
	if p.Stock < 0 {
		return errors.New("stock cannot be negative")
	}
	for _, img := range p.Images {
		if img.ImageURL == "" {
			return errors.New("image_url is required for every image")
		}
	}
	return nil
}

func CreateProduct(w http.ResponseWriter, r *http.Request) {
	var payload productPayload
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := payload.validate(); err != nil {
		utils.HandleError(w, http.StatusBadRequest, err.Error())
		return
	}

	availability := true
	if payload.Availability != nil {
		availability = *payload.Availability
	}
	var originalPrice decimal.NullDecimal
	if payload.OriginalPrice != nil {
		originalPrice = decimal.NullDecimal{Decimal: *payload.OriginalPrice, Valid: true}
	}

	now := time.Now()
	tx, err := db.Beginx()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to start transaction")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	defer tx.Rollback()

	query, args, err := QB.Insert("products").
		Columns("id", "name", "description", "price", "original_price", "category", "material",
			"availability", "stock", "created_at", "updated_at").
		Values(uuid.New(), payload.Name, payload.Description, payload.Price, originalPrice,
			payload.Category, payload.Material, availability, payload.Stock, now, now).
		Suffix(fmt.Sprintf("RETURNING %s", strings.Join(productColumns, ", "))).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	var product models.Product
	if err := tx.QueryRowx(query, args...).StructScan(&product); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Error creating product")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	images := []models.ProductImage{}
	for _, img := range payload.Images {
		image := models.ProductImage{
			ID:        uuid.New(),
			ProductID: product.ID,
			ImageURL:  img.ImageURL,
			AltText:   img.AltText,
			Order:     img.Order,
		}
		query, args, err := QB.Insert("product_images").
			Columns("id", "product_id", "image_url", "alt_text", "image_order").
			Values(image.ID, image.ProductID, image.ImageURL, image.AltText, image.Order).
			ToSql()
		if err != nil {
			utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
			log.Println(utils.ErrorWithTrace(err, err.Error()))
			return
		}
		if _, err := tx.Exec(query, args...); err != nil {
			utils.HandleError(w, http.StatusInternalServerError, "Error creating product image")
			log.Println(utils.ErrorWithTrace(err, err.Error()))
			return
		}
		images = append(images, image)
	}

	if err := tx.Commit(); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to commit transaction")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusCreated, productResponse{Product: product, Images: images})
}

type productUpdatePayload struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	Category      *string          `json:"category"`
	Material      *string          `json:"material"`
	Availability  *bool            `json:"availability"`
	Stock         *int             `json:"stock"`
}

func UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.HandleError(w, http.StatusNotFound, "Product not found")
		return
	}
	if _, ok := fetchProduct(w, productID); !ok {
		return
	}

	var payload productUpdatePayload
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	update := QB.Update("products").Set("updated_at", time.Now())
	if payload.Name != nil {
		if *payload.Name == "" {
			utils.HandleError(w, http.StatusBadRequest, "name cannot be empty")
			return
		}
		update = update.Set("name", *payload.Name)
	}
	if payload.Description != nil {
		update = update.Set("description", *payload.Description)
	}
	if payload.Price != nil {
		if !payload.Price.IsPositive() {
			utils.HandleError(w, http.StatusBadRequest, "price must be greater than zero")
			return
		}
		update = update.Set("price", *payload.Price)
	}
	if payload.OriginalPrice != nil {
		update = update.Set("original_price", *payload.OriginalPrice)
	}
	if payload.Category != nil {
		if !models.ValidCategory(*payload.Category) {
			utils.HandleError(w, http.StatusBadRequest, fmt.Sprintf("invalid category %q", *payload.Category))
			return
		}
		update = update.Set("category", *payload.Category)
	}
	if payload.Material != nil {
		if !models.ValidMaterial(*payload.Material) {
			utils.HandleError(w, http.StatusBadRequest, fmt.Sprintf("invalid material %q", *payload.Material))
			return
		}
		update = update.Set("material", *payload.Material)
	}
	if payload.Availability != nil {
		update = update.Set("availability", *payload.Availability)
	}
	if payload.Stock != nil {
		if *payload.Stock < 0 {
			utils.HandleError(w, http.StatusBadRequest, "stock cannot be negative")
			return
		}
		update = update.Set("stock", *payload.Stock)
	}

	query, args, err := update.
		Where(squirrel.Eq{"id": productID}).
		Suffix(fmt.Sprintf("RETURNING %s", strings.Join(productColumns, ", "))).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	var product models.Product
	if err := db.QueryRowx(query, args...).StructScan(&product); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Error updating product")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, product)
}

func DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.HandleError(w, http.StatusNotFound, "Product not found")
		return
	}

	query, args, err := QB.Delete("products").Where(squirrel.Eq{"id": productID}).ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	result, err := db.Exec(query, args...)
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to delete product")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		utils.HandleError(w, http.StatusNotFound, "Product not found")
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, map[string]string{
		"message": "Product deleted successfully",
	})
}

// LikeProduct toggles the caller's like. The like row and the counter move
// together in one transaction; the decrement floors at zero.
func LikeProduct(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.HandleError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	productID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.HandleError(w, http.StatusNotFound, "Product not found")
		return
	}
	if _, ok := fetchProduct(w, productID); !ok {
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to start transaction")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	defer tx.Rollback()

	query, args, err := QB.Select("id").From("product_likes").
		Where(squirrel.Eq{"user_id": claims.UserID, "product_id": productID}).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	var likeID uuid.UUID
	var message string
	switch err := tx.Get(&likeID, query, args...); {
	case errors.Is(err, sql.ErrNoRows):
		query, args, err := QB.Insert("product_likes").
			Columns("id", "user_id", "product_id", "created_at").
			Values(uuid.New(), claims.UserID, productID, time.Now()).
			ToSql()
		if err != nil {
			utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
			log.Println(utils.ErrorWithTrace(err, err.Error()))
			return
		}
		if _, err := tx.Exec(query, args...); err != nil {
			utils.HandleError(w, http.StatusInternalServerError, "Failed to like product")
			log.Println(utils.ErrorWithTrace(err, err.Error()))
			return
		}
		if err := bumpCounter(tx, productID, "likes", "likes + 1"); err != nil {
			utils.HandleError(w, http.StatusInternalServerError, "Failed to update like count")
			log.Println(utils.ErrorWithTrace(err, err.Error()))
			return
		}
		message = "Product liked"
	case err == nil:
		query, args, err := QB.Delete("product_likes").Where(squirrel.Eq{"id": likeID}).ToSql()
		if err != nil {
			utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
			log.Println(utils.ErrorWithTrace(err, err.Error()))
			return
		}
		if _, err := tx.Exec(query, args...); err != nil {
			utils.HandleError(w, http.StatusInternalServerError, "Failed to unlike product")
			log.Println(utils.ErrorWithTrace(err, err.Error()))
			return
		}
		if err := bumpCounter(tx, productID, "likes", "GREATEST(likes - 1, 0)"); err != nil {
			utils.HandleError(w, http.StatusInternalServerError, "Failed to update like count")
			log.Println(utils.ErrorWithTrace(err, err.Error()))
			return
		}
		message = "Product unliked"
	default:
		utils.HandleError(w, http.StatusInternalServerError, "Failed to check like")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	if err := tx.Commit(); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to commit transaction")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, map[string]string{"message": message})
}

// TrackProductView appends a view record and bumps the counter. Anonymous
// callers are recorded with a null user and their network address.
func TrackProductView(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.HandleError(w, http.StatusNotFound, "Product not found")
		return
	}
	if _, ok := fetchProduct(w, productID); !ok {
		return
	}

	var userID uuid.NullUUID
	if claims, ok := middleware.UserFrom(r.Context()); ok {
		userID = uuid.NullUUID{UUID: claims.UserID, Valid: true}
	}

	tx, err := db.Beginx()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to start transaction")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	defer tx.Rollback()

	query, args, err := QB.Insert("product_views").
		Columns("id", "user_id", "product_id", "ip_address", "viewed_at").
		Values(uuid.New(), userID, productID, utils.ClientIP(r), time.Now()).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	if _, err := tx.Exec(query, args...); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to record view")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	if err := bumpCounter(tx, productID, "views", "views + 1"); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to update view count")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	if err := tx.Commit(); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to commit transaction")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, map[string]string{"message": "View tracked"})
}

// fetchProduct loads a product or writes a 404, reporting whether the caller
// should continue.
func fetchProduct(w http.ResponseWriter, productID uuid.UUID) (models.Product, bool) {
	query, args, err := QB.Select(productColumns...).From("products").
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return models.Product{}, false
	}
	var product models.Product
	if err := db.Get(&product, query, args...); err != nil {
		utils.HandleError(w, http.StatusNotFound, "Product not found")
		return models.Product{}, false
	}
	return product, true
}

// bumpCounter applies a store-level counter expression so concurrent
// requests never lose updates to a read-modify-write race.
func bumpCounter(tx *sqlx.Tx, productID uuid.UUID, column, expr string) error {
	query, args, err := QB.Update("products").
		Set(column, squirrel.Expr(expr)).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(query, args...)
	return err
}

func loadFirstImages(productIDs []uuid.UUID) (map[uuid.UUID]models.ProductImage, error) {
	images := map[uuid.UUID]models.ProductImage{}
	if len(productIDs) == 0 {
		return images, nil
	}

	query, args, err := QB.Select("id", "product_id", "image_url", "alt_text", "image_order").
		Options("DISTINCT ON (product_id)").
		From("product_images").
		Where(squirrel.Eq{"product_id": productIDs}).
		OrderBy("product_id", "image_order").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []models.ProductImage
	if err := db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	for _, img := range rows {
		images[img.ProductID] = img
	}
	return images, nil
}

// loadActiveOffers resolves at most one currently-active offer per product,
// preferring the one ending soonest.
func loadActiveOffers(productIDs []uuid.UUID, now time.Time) (map[uuid.UUID]offerBadge, error) {
	offers := map[uuid.UUID]offerBadge{}
	if len(productIDs) == 0 {
		return offers, nil
	}

	query, args, err := QB.Select("offer_products.product_id", "offers.id", "offers.title",
		"offers.discount_percentage", "offers.end_date").
		Options("DISTINCT ON (offer_products.product_id)").
		From("offer_products").
		Join("offers ON offers.id = offer_products.offer_id").
		Where(squirrel.Eq{"offer_products.product_id": productIDs}).
		Where(activeOfferPredicate(now)).
		OrderBy("offer_products.product_id", "offers.end_date").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []offerBadge
	if err := db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	for _, offer := range rows {
		offers[offer.ProductID] = offer
	}
	return offers, nil
}
