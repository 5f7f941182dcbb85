package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/lockvest/investment-engine/internal/auth"
	"github.com/lockvest/investment-engine/internal/domain"
	"github.com/lockvest/investment-engine/pkg/response"
)

type AuthHandler struct {
	tokens    *auth.TokenManager
	validator *validator.Validate
}

func NewAuthHandler(tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{
		tokens:    tokens,
		validator: validator.New(),
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "invalid login request", err)
		return
	}

	resp, err := h.tokens.Login(r.Context(), &req)
	if err != nil {
		response.Unauthorized(w, "invalid credentials")
		return
	}

	response.Success(w, resp)
}
