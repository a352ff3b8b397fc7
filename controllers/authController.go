package controllers

import (
	"log"
	"net/http"

	"atelier/models"
	"atelier/utils"

	"github.com/Masterminds/squirrel"
)

// Login verifies credentials and issues an access/refresh token pair with
// the user's role baked into the claims.
func Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.HandleError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.Username == "" || payload.Password == "" {
		utils.HandleError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	query, args, err := QB.Select(userColumns...).From("users").
		Where(squirrel.Eq{"username": payload.Username}).
		ToSql()
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to build query")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	var user models.User
	if err := db.Get(&user, query, args...); err != nil {
		utils.HandleError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err := utils.CheckPassword(user.Password, payload.Password); err != nil {
		utils.HandleError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	access, err := utils.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to generate token")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}
	refresh, err := utils.GenerateRefreshToken(user.ID, user.Role)
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to generate token")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, map[string]interface{}{
		"access":  access,
		"refresh": refresh,
		"user":    user,
	})
}

// Refresh exchanges a valid refresh token for a new access token.
func Refresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Refresh string `json:"refresh"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil || payload.Refresh == "" {
		utils.HandleError(w, http.StatusBadRequest, "refresh token is required")
		return
	}

	claims, err := utils.ValidateJWT(payload.Refresh)
	if err != nil || claims.TokenType != utils.TokenTypeRefresh {
		utils.HandleError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	access, err := utils.GenerateAccessToken(claims.UserID, claims.Role)
	if err != nil {
		utils.HandleError(w, http.StatusInternalServerError, "Failed to generate token")
		log.Println(utils.ErrorWithTrace(err, err.Error()))
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, map[string]string{"access": access})
}
