package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/billprepared/backend/internal/api/dto"
	"github.com/billprepared/backend/internal/application/service"
)

// UserHandler handles balance and preference HTTP requests.
type UserHandler struct {
	*Base
	ledger *service.LedgerService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(ledger *service.LedgerService) *UserHandler {
	return &UserHandler{
		Base:   &Base{},
		ledger: ledger,
	}
}

// GetBalance handles GET /api/balance.
func (h *UserHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.ledger.Balance()
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.BalanceResponse{CurrentBalance: balance})
}

// UpdateBalance handles PUT /api/balance.
func (h *UserHandler) UpdateBalance(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	if err := h.ledger.SetBalance(req.CurrentBalance); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.BalanceResponse{CurrentBalance: req.CurrentBalance})
}

// GetPreferences handles GET /api/user/preferences.
func (h *UserHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	showAdvanced, err := h.ledger.ShowAdvanced()
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.PreferencesResponse{ShowAdvanced: showAdvanced})
}

// UpdatePreferences handles POST /api/user/preferences. The show_advanced
// flag only moves from false to true; requests to turn it back off are
// accepted but ignored.
func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	if req.ShowAdvanced {
		if err := h.ledger.EnableAdvanced(); err != nil {
			h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
			return
		}
	}

	showAdvanced, err := h.ledger.ShowAdvanced()
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.PreferencesResponse{ShowAdvanced: showAdvanced})
}
