package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/billprepared/backend/internal/api/dto"
	"github.com/billprepared/backend/internal/application/service"
	"github.com/billprepared/backend/internal/infrastructure/storage"
)

// TransactionsHandler handles transaction-related HTTP requests.
type TransactionsHandler struct {
	*Base
	ledger *service.LedgerService
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(ledger *service.LedgerService) *TransactionsHandler {
	return &TransactionsHandler{
		Base:   &Base{},
		ledger: ledger,
	}
}

// List handles GET /api/transactions - returns occurrences in a date window.
// The window defaults to today through the end of the forecast period.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := storage.OccurrenceFilters{
		Start:  ParseDateParam(r, "start"),
		End:    ParseDateParam(r, "end"),
		Limit:  ParseIntParam(r, "limit", 0),
		Offset: ParseIntParam(r, "offset", 0),
	}

	if val := r.URL.Query().Get("confirmed"); val != "" {
		confirmed := val == "true" || val == "1"
		filters.Confirmed = &confirmed
	}

	occurrences, err := h.ledger.ListTransactions(filters)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.TransactionListResponse{
		Transactions: make([]dto.TransactionResponse, 0, len(occurrences)),
		Count:        len(occurrences),
		Limit:        filters.Limit,
		Offset:       filters.Offset,
	}
	for i := range occurrences {
		response.Transactions = append(response.Transactions, toTransactionResponse(&occurrences[i]))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/transactions/{id} - returns a single occurrence.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("transaction ID is required"))
		return
	}

	occ, err := h.ledger.GetTransaction(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("transaction"))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, toTransactionResponse(occ))
}

// Create handles POST /api/transactions - creates a standalone occurrence.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	occ, apiErr := decodeTransaction(r, 0)
	if apiErr != nil {
		h.WriteError(w, http.StatusBadRequest, *apiErr)
		return
	}

	id, err := h.ledger.CreateTransaction(occ)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusCreated, dto.CreatedResponse{ID: id})
}

// Update handles PUT /api/transactions/{id}. For occurrences generated by a
// recurring rule the edit_mode field selects "single" or "future" semantics.
func (h *TransactionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("transaction ID is required"))
		return
	}

	var req dto.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	occ, apiErr := buildTransaction(req, id)
	if apiErr != nil {
		h.WriteError(w, http.StatusBadRequest, *apiErr)
		return
	}

	if err := h.ledger.UpdateTransaction(occ, req.EditMode); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("transaction"))
		case errors.Is(err, service.ErrUnknownEditMode):
			h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
		default:
			h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "transaction updated"})
}

// Delete handles DELETE /api/transactions/{id}.
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("transaction ID is required"))
		return
	}

	if err := h.ledger.DeleteTransaction(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("transaction"))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "transaction deleted"})
}

// Confirm handles POST /api/transactions/{id}/confirm - marks an occurrence
// as paid without changing its amount.
func (h *TransactionsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("transaction ID is required"))
		return
	}

	if err := h.ledger.ConfirmTransaction(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("transaction"))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "transaction confirmed"})
}

// decodeTransaction decodes and validates a transaction request body.
func decodeTransaction(r *http.Request, id int64) (*storage.Occurrence, *dto.APIError) {
	var req dto.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badReq := dto.BadRequestError("invalid request body")
		return nil, &badReq
	}
	return buildTransaction(req, id)
}

// buildTransaction converts a request to a storage occurrence.
func buildTransaction(req dto.TransactionRequest, id int64) (*storage.Occurrence, *dto.APIError) {
	if req.Description == "" {
		valErr := dto.ValidationError("description is required")
		return nil, &valErr
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		valErr := dto.ValidationError("date must be in YYYY-MM-DD format")
		return nil, &valErr
	}

	return &storage.Occurrence{
		ID:          id,
		Description: req.Description,
		Amount:      req.Amount,
		Date:        date,
		Label:       req.Label,
	}, nil
}

// toTransactionResponse converts a storage occurrence to an API response.
func toTransactionResponse(occ *storage.Occurrence) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:          occ.ID,
		Description: occ.Description,
		Amount:      occ.Amount,
		Date:        occ.Date.Format("2006-01-02"),
		Label:       occ.Label,
		IsRecurring: occ.IsRecurring,
		RecurringID: occ.RecurringID,
		IsConfirmed: occ.IsConfirmed,
		CreatedAt:   occ.CreatedAt.UTC().Format(time.RFC3339),
	}
}
