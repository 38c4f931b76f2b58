package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/billprepared/backend/internal/api/dto"
	"github.com/billprepared/backend/internal/application/service"
	"github.com/billprepared/backend/internal/infrastructure/storage"
)

// ImportHandler handles bank CSV import HTTP requests.
type ImportHandler struct {
	*Base
	imports *service.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(imports *service.ImportService) *ImportHandler {
	return &ImportHandler{
		Base:    &Base{},
		imports: imports,
	}
}

// DetectRecurring handles POST /api/import/csv/recurring - runs recurring
// pattern detection over an uploaded CSV. Read-only: candidates are returned
// for the user to accept, nothing is written.
func (h *ImportHandler) DetectRecurring(w http.ResponseWriter, r *http.Request) {
	body, apiErr := csvBody(r)
	if apiErr != nil {
		h.WriteError(w, http.StatusBadRequest, *apiErr)
		return
	}
	defer body.Close()

	report, err := h.imports.DetectRecurring(body)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	h.WriteJSON(w, http.StatusOK, report)
}

// ReconcileCSV handles POST /api/import/csv/confirm - reconciles bank rows
// against pending occurrences and applies the confident confirmations.
func (h *ImportHandler) ReconcileCSV(w http.ResponseWriter, r *http.Request) {
	body, apiErr := csvBody(r)
	if apiErr != nil {
		h.WriteError(w, http.StatusBadRequest, *apiErr)
		return
	}
	defer body.Close()

	report, err := h.imports.ReconcileCSV(body)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, report)
}

// ConfirmUpdate handles POST /api/import/confirm_update - resolves a
// reviewed reconciliation item at the bank amount.
func (h *ImportHandler) ConfirmUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.ConfirmUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}
	if req.TransactionID <= 0 {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("transaction_id is required"))
		return
	}

	if err := h.imports.ConfirmUpdate(req.TransactionID, req.NewAmount, req.UpdateFuture); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("transaction"))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "transaction confirmed"})
}

// csvBody returns the CSV payload of an import request. Multipart uploads
// use the "file" form field; any other content type is read as a raw body.
func csvBody(r *http.Request) (io.ReadCloser, *dto.APIError) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			badReq := dto.BadRequestError("file field is required")
			return nil, &badReq
		}
		return file, nil
	}
	return r.Body, nil
}
