package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/billprepared/backend/internal/api/dto"
	"github.com/billprepared/backend/internal/application/service"
	"github.com/billprepared/backend/internal/domain/projector"
	"github.com/billprepared/backend/internal/infrastructure/storage"
)

// RulesHandler handles recurring-rule HTTP requests.
type RulesHandler struct {
	*Base
	ledger *service.LedgerService
}

// NewRulesHandler creates a new recurring-rules handler.
func NewRulesHandler(ledger *service.LedgerService) *RulesHandler {
	return &RulesHandler{
		Base:   &Base{},
		ledger: ledger,
	}
}

// List handles GET /api/recurring - returns all recurring rules.
func (h *RulesHandler) List(w http.ResponseWriter, r *http.Request) {
	rules, err := h.ledger.ListRules()
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.RuleListResponse{
		Rules: make([]dto.RuleResponse, 0, len(rules)),
		Count: len(rules),
	}
	for i := range rules {
		response.Rules = append(response.Rules, toRuleResponse(&rules[i]))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/recurring/{id}.
func (h *RulesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("rule ID is required"))
		return
	}

	rule, err := h.ledger.GetRule(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("recurring rule"))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, toRuleResponse(rule))
}

// Create handles POST /api/recurring - creates a rule and projects its
// occurrences over the forecast window.
func (h *RulesHandler) Create(w http.ResponseWriter, r *http.Request) {
	rule, apiErr := decodeRule(r, 0)
	if apiErr != nil {
		h.WriteError(w, http.StatusBadRequest, *apiErr)
		return
	}

	id, err := h.ledger.CreateRule(rule)
	if err != nil {
		if errors.Is(err, projector.ErrInvalidRule) {
			h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusCreated, dto.CreatedResponse{ID: id})
}

// Update handles PUT /api/recurring/{id}. An amount-only edit propagates to
// future unconfirmed occurrences; a schedule change regenerates them.
func (h *RulesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("rule ID is required"))
		return
	}

	rule, apiErr := decodeRule(r, id)
	if apiErr != nil {
		h.WriteError(w, http.StatusBadRequest, *apiErr)
		return
	}

	if err := h.ledger.UpdateRule(rule); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("recurring rule"))
		case errors.Is(err, projector.ErrInvalidRule):
			h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
		default:
			h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "recurring rule updated"})
}

// Delete handles DELETE /api/recurring/{id} - removes the rule and every
// occurrence generated from it.
func (h *RulesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("rule ID is required"))
		return
	}

	if err := h.ledger.DeleteRule(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("recurring rule"))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "recurring rule deleted"})
}

// decodeRule decodes and validates a rule request body.
func decodeRule(r *http.Request, id int64) (*storage.RecurringRule, *dto.APIError) {
	var req dto.RuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badReq := dto.BadRequestError("invalid request body")
		return nil, &badReq
	}

	if req.Description == "" {
		valErr := dto.ValidationError("description is required")
		return nil, &valErr
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		valErr := dto.ValidationError("start_date must be in YYYY-MM-DD format")
		return nil, &valErr
	}

	rule := &storage.RecurringRule{
		ID:          id,
		Description: req.Description,
		Amount:      req.Amount,
		StartDate:   startDate,
		Label:       req.Label,
		Frequency:   req.Frequency,
		Interval:    req.Interval,
	}
	if rule.Interval == 0 {
		rule.Interval = 1
	}

	if req.EndDate != nil {
		endDate, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			valErr := dto.ValidationError("end_date must be in YYYY-MM-DD format")
			return nil, &valErr
		}
		rule.EndDate = &endDate
	}

	return rule, nil
}

// toRuleResponse converts a storage rule to an API response.
func toRuleResponse(rule *storage.RecurringRule) dto.RuleResponse {
	response := dto.RuleResponse{
		ID:          rule.ID,
		Description: rule.Description,
		Amount:      rule.Amount,
		StartDate:   rule.StartDate.Format("2006-01-02"),
		Label:       rule.Label,
		Frequency:   rule.Frequency,
		Interval:    rule.Interval,
		CreatedAt:   rule.CreatedAt.UTC().Format(time.RFC3339),
	}

	if rule.EndDate != nil {
		endDate := rule.EndDate.Format("2006-01-02")
		response.EndDate = &endDate
	}

	return response
}
