package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/billprepared/backend/internal/api/dto"
	"github.com/billprepared/backend/internal/application/service"
)

// SettingsHandler handles tuning-settings HTTP requests.
type SettingsHandler struct {
	*Base
	settings *service.SettingsService
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{
		Base:     &Base{},
		settings: settings,
	}
}

// List handles GET /api/settings - returns every stored setting.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.settings.GetAll()
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.SettingsResponse{
		Settings: make([]dto.SettingResponse, 0, len(all)),
	}
	for _, s := range all {
		response.Settings = append(response.Settings, dto.SettingResponse{
			Key:   s.Key,
			Value: s.Value,
		})
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Update handles POST /api/settings - validates and stores one setting.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}
	if req.Key == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("key is required"))
		return
	}

	if err := h.settings.Update(req.Key, req.Value); err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownSetting):
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("setting"))
		case errors.Is(err, service.ErrInvalidSetting):
			h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
		default:
			h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.SettingResponse{Key: req.Key, Value: req.Value})
}

// Restore handles POST /api/settings/{key}/restore - resets one setting to
// its default value.
func (h *SettingsHandler) Restore(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("setting key is required"))
		return
	}

	value, err := h.settings.Restore(key)
	if err != nil {
		if errors.Is(err, service.ErrUnknownSetting) {
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("setting"))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.SettingResponse{Key: key, Value: value})
}
