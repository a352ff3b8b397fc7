package controllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"atelier/models"
	"atelier/utils"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type offerResponse struct {
	models.Offer
	ProductIDs []uuid.UUID `json:"product_ids"`
}

func ListOffers(w http.ResponseWriter, r *http.Request) {
	query, args, err := QB.Select(offerColumns...).From("offers").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	offers := []models.Offer{}
	if err := db.Select(&offers, query, args...); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to fetch offers")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, offers)
}

// ActiveOffers returns only offers whose window contains the current moment.
func ActiveOffers(w http.ResponseWriter, r *http.Request) {
	query, args, err := QB.Select(offerColumns...).From("offers").
		Where(activeOfferPredicate(time.Now())).
		OrderBy("end_date").
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	offers := []models.Offer{}
	if err := db.Select(&offers, query, args...); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to fetch offers")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, offers)
}

func GetOffer(w http.ResponseWriter, r *http.Request) {
	offerID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.HandleError(w, http.StatusNotFound, "Offer not found")
		return
	}

	query, args, err := QB.Select(offerColumns...).From("offers").
		Where(squirrel.Eq{"id": offerID}).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	var offer models.Offer
	if err := db.Get(&offer, query, args...); err != nil {
		utils.HandleError(w, http.StatusNotFound, "Offer not found")
		return
	}

	productIDs, err := offerProductIDs(offerID)
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to fetch offer products")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, offerResponse{Offer: offer, ProductIDs: productIDs})
}

type offerPayload struct {
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            time.Time       `json:"end_date"`
	Active             *bool           `json:"active"`
	ProductIDs         []uuid.UUID     `json:"product_ids"`
}

func (p offerPayload) validate() error {
	if p.Title == "" {
		return errors.New("title is required")
	}
	if p.DiscountPercentage.IsNegative() || p.DiscountPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("discount_percentage must be between 0 and 100")
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return errors.New("start_date and end_date are required")
	}
	if p.EndDate.Before(p.StartDate) {
		return errors.New("end_date must be after start_date")
	}
	return nil
}

func CreateOffer(w http.ResponseWriter, r *http.Request) {
	var payload offerPayload
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := payload.validate(); err != nil {
		utils.HandleError(w, http.StatusBadRequest, err.Error())
		return
	}

	active := true
	if payload.Active != nil {
		active = *payload.Active
	}

	tx, err := db.Beginx()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to start transaction")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	defer tx.Rollback()

	query, args, err := QB.Insert("offers").
		Columns("id", "title", "description", "discount_percentage", "start_date", "end_date", "active", "created_at").
		Values(uuid.New(), payload.Title, payload.Description, payload.DiscountPercentage,
			payload.StartDate, payload.EndDate, active, time.Now()).
		Suffix(fmt.Sprintf("RETURNING %s", strings.Join(offerColumns, ", "))).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	var offer models.Offer
	if err := tx.QueryRowx(query, args...).StructScan(&offer); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Error creating offer")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	if err := replaceOfferProducts(tx, offer.ID, payload.ProductIDs); err != nil {
		if errors.Is(err, errUnknownProduct) {
			utils.HandleError(w, http.StatusNotFound, "One or more products not found")
			return
		}
		utils.HandleError(w, http.StatusInternalServerError, "Failed to link offer products")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	if err := tx.Commit(); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to commit transaction")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusCreated, offerResponse{Offer: offer, ProductIDs: payload.ProductIDs})
}

func UpdateOffer(w http.ResponseWriter, r *http.Request) {
	offerID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.HandleError(w, http.StatusNotFound, "Offer not found")
		return
	}

	var payload offerPayload
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := payload.validate(); err != nil {
		utils.HandleError(w, http.StatusBadRequest, err.Error())
		return
	}

	active := true
	if payload.Active != nil {
		active = *payload.Active
	}

	tx, err := db.Beginx()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to start transaction")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	defer tx.Rollback()

	query, args, err := QB.Update("offers").
		Set("title", payload.Title).
		Set("description", payload.Description).
		Set("discount_percentage", payload.DiscountPercentage).
		Set("start_date", payload.StartDate).
		Set("end_date", payload.EndDate).
		Set("active", active).
		Where(squirrel.Eq{"id": offerID}).
		Suffix(fmt.Sprintf("RETURNING %s", strings.Join(offerColumns, ", "))).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	var offer models.Offer
	if err := tx.QueryRowx(query, args...).StructScan(&offer); err != nil {
		utils.HandleError(w, http.StatusNotFound, "Offer not found")
		return
	}

	if err := replaceOfferProducts(tx, offer.ID, payload.ProductIDs); err != nil {
		if errors.Is(err, errUnknownProduct) {
			utils.HandleError(w, http.StatusNotFound, "One or more products not found")
			return
		}
		utils.HandleError(w, http.StatusInternalServerError, "Failed to link offer products")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	if err := tx.Commit(); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to commit transaction")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, offerResponse{Offer: offer, ProductIDs: payload.ProductIDs})
}

func DeleteOffer(w http.ResponseWriter, r *http.Request) {
	offerID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.HandleError(w, http.StatusNotFound, "Offer not found")
		return
	}

	query, args, err := QB.Delete("offers").Where(squirrel.Eq{"id": offerID}).ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	result, err := db.Exec(query, args...)
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to delete offer")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		utils.HandleError(w, http.StatusNotFound, "Offer not found")
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, map[string]string{
		"message": "Offer deleted successfully",
	})
}

var errUnknownProduct = errors.New("unknown product id")

// replaceOfferProducts swaps the offer's product links for the given set,
// verifying every id first.
func replaceOfferProducts(tx *sqlx.Tx, offerID uuid.UUID, productIDs []uuid.UUID) error {
	query, args, err := QB.Delete("offer_products").Where(squirrel.Eq{"offer_id": offerID}).ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}
	if len(productIDs) == 0 {
		return nil
	}

	missing, err := missingProductIDs(tx, productIDs)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return errUnknownProduct
	}

	insert := QB.Insert("offer_products").Columns("offer_id", "product_id")
	for _, productID := range productIDs {
		insert = insert.Values(offerID, productID)
	}
	query, args, err = insert.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(query, args...)
	return err
}

// missingProductIDs reports which of the given ids have no product row.
func missingProductIDs(tx *sqlx.Tx, productIDs []uuid.UUID) ([]uuid.UUID, error) {
	query, args, err := QB.Select("id").From("products").
		Where(squirrel.Eq{"id": productIDs}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var found []uuid.UUID
	if err := tx.Select(&found, query, args...); err != nil {
		return nil, err
	}

	exists := map[uuid.UUID]bool{}
	for _, id := range found {
		exists[id] = true
	}
	var missing []uuid.UUID
	for _, id := range productIDs {
		if !exists[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
