package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/lockvest/investment-engine/internal/auth"
	"github.com/lockvest/investment-engine/internal/domain"
	"github.com/lockvest/investment-engine/internal/service"
	"github.com/lockvest/investment-engine/pkg/response"
)

// ClientHandler exposes the client-side lifecycle operations. It owns no
// state; every request re-derives from the services.
type ClientHandler struct {
	clients   *service.ClientService
	catalog   *service.CatalogService
	validator *validator.Validate
}

func NewClientHandler(clients *service.ClientService, catalog *service.CatalogService) *ClientHandler {
	return &ClientHandler{
		clients:   clients,
		catalog:   catalog,
		validator: validator.New(),
	}
}

// ListSchemes returns the live schemes open for commitment.
func (h *ClientHandler) ListSchemes(w http.ResponseWriter, r *http.Request) {
	schemes, err := h.catalog.LiveSchemes(r.Context())
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, schemes)
}

// Portfolio returns the caller's reconciled investments and summary stats.
func (h *ClientHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "missing identity")
		return
	}

	portfolio, err := h.clients.Portfolio(r.Context(), user.ID, time.Now())
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, portfolio)
}

// Apply commits an amount to a scheme on the caller's behalf.
func (h *ClientHandler) Apply(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "missing identity")
		return
	}

	var req domain.ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "invalid apply request", err)
		return
	}

	inv, err := h.clients.ApplyForScheme(r.Context(), user, req.SchemeID, req.Amount)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, inv)
}

// Withdraw moves a matured investment to its terminal state and files the
// payout claim for operator approval.
func (h *ClientHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "missing identity")
		return
	}

	var req domain.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "invalid withdraw request", err)
		return
	}

	inv, claim, err := h.clients.RequestWithdrawal(r.Context(), user, req.InvestmentID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{
		"investment": inv,
		"claim":      claim,
	})
}
