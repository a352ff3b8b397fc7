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
)

type registerPayload struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone"`
}

func (p registerPayload) validate() error {
	if p.Username == "" {
		return errors.New("username is required")
	}
	if p.Email == "" || !strings.Contains(p.Email, "@") {
		return errors.New("a valid email is required")
	}
	if len(p.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if p.Password != p.PasswordConfirm {
		return errors.New("passwords don't match")
	}
	return nil
}

// Register creates a customer account. Role is never caller-controlled.
func Register(w http.ResponseWriter, r *http.Request) {
	var payload registerPayload
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := payload.validate(); err != nil {
		utils.HandleError(w, http.StatusBadRequest, err.Error())
		return
	}

	query, args, err := QB.Select("id").From("users").
		Where(squirrel.Or{
			squirrel.Eq{"username": payload.Username},
			squirrel.Eq{"email": payload.Email},
		}).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	var existingID uuid.UUID
	if err := db.Get(&existingID, query, args...); err == nil {
		utils.HandleError(w, http.StatusConflict, "A user with this username or email already exists")
		return
	}

	hashedPassword, err := utils.HashPassword(payload.Password)
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to hash password")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	now := time.Now()
	user := models.User{
		ID:        uuid.New(),
		Username:  payload.Username,
		Email:     payload.Email,
		Password:  hashedPassword,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Role:      models.RoleCustomer,
		Phone:     payload.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query, args, err = QB.Insert("users").
		Columns("id", "username", "email", "password", "first_name", "last_name", "role", "phone",
			"created_at", "updated_at").
		Values(user.ID, user.Username, user.Email, user.Password, user.FirstName, user.LastName,
			user.Role, user.Phone, user.CreatedAt, user.UpdatedAt).
		Suffix(fmt.Sprintf("RETURNING %s", strings.Join(userColumns, ", "))).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	if err := db.QueryRowx(query, args...).StructScan(&user); err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Error creating user")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusCreated, user)
}

func Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.HandleError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	query, args, err := QB.Select(userColumns...).From("users").
		Where(squirrel.Eq{"id": claims.UserID}).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	var user models.User
	if err := db.Get(&user, query, args...); err != nil {
		utils.HandleError(w, http.StatusNotFound, "User not found")
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, user)
}
