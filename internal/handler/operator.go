package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/lockvest/investment-engine/internal/domain"
	"github.com/lockvest/investment-engine/internal/export"
	"github.com/lockvest/investment-engine/internal/service"
	"github.com/lockvest/investment-engine/pkg/response"
)

// OperatorHandler exposes the catalog management and claims workflow. All
// routes behind it require the admin role tag.
type OperatorHandler struct {
	operator  *service.OperatorService
	catalog   *service.CatalogService
	validator *validator.Validate
}

func NewOperatorHandler(operator *service.OperatorService, catalog *service.CatalogService) *OperatorHandler {
	return &OperatorHandler{
		operator:  operator,
		catalog:   catalog,
		validator: validator.New(),
	}
}

func (h *OperatorHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.operator.Stats(r.Context(), time.Now())
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, stats)
}

// Investments returns the aggregated, owner-tagged view across the roster.
func (h *OperatorHandler) Investments(w http.ResponseWriter, r *http.Request) {
	aggregated, err := h.operator.AggregateInvestments(r.Context(), time.Now())
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, aggregated)
}

func (h *OperatorHandler) ListClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.operator.ListClaims(r.Context())
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, claims)
}

func (h *OperatorHandler) ApproveClaim(w http.ResponseWriter, r *http.Request) {
	claimID := mux.Vars(r)["claimId"]

	claim, err := h.operator.ApproveClaim(r.Context(), claimID, time.Now())
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, claim)
}

// ExportClaims streams the claim record as CSV or plain text.
func (h *OperatorHandler) ExportClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.operator.ListClaims(r.Context())
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "txt":
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("Content-Disposition", `attachment; filename="withdraw_claims.txt"`)
		err = export.WriteText(w, claims)
	default:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="withdraw_claims.csv"`)
		err = export.WriteCSV(w, claims)
	}

	if err != nil {
		response.InternalServerError(w, "rendering claim export", err)
	}
}

func (h *OperatorHandler) CreateScheme(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSchemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "invalid scheme request", err)
		return
	}

	scheme, err := h.catalog.Create(r.Context(), &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, scheme)
}

func (h *OperatorHandler) ListSchemes(w http.ResponseWriter, r *http.Request) {
	schemes, err := h.catalog.List(r.Context())
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, schemes)
}

func (h *OperatorHandler) ToggleScheme(w http.ResponseWriter, r *http.Request) {
	id, err := schemeID(r)
	if err != nil {
		response.BadRequest(w, "invalid scheme id", err)
		return
	}

	scheme, err := h.catalog.ToggleLive(r.Context(), id)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, scheme)
}

func (h *OperatorHandler) EditScheme(w http.ResponseWriter, r *http.Request) {
	id, err := schemeID(r)
	if err != nil {
		response.BadRequest(w, "invalid scheme id", err)
		return
	}

	var patch domain.SchemePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&patch); err != nil {
		response.BadRequest(w, "invalid scheme patch", err)
		return
	}

	scheme, err := h.catalog.Edit(r.Context(), id, &patch)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, scheme)
}

func (h *OperatorHandler) SchemeHistory(w http.ResponseWriter, r *http.Request) {
	id, err := schemeID(r)
	if err != nil {
		response.BadRequest(w, "invalid scheme id", err)
		return
	}

	history, err := h.catalog.History(r.Context(), id)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, history)
}

func schemeID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["schemeId"], 10, 64)
}
