package dto

import "time"

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a health response with the current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// TransactionResponse represents a ledger occurrence in API responses.
type TransactionResponse struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Label       string  `json:"label,omitempty"`
	IsRecurring bool    `json:"is_recurring"`
	RecurringID *int64  `json:"recurring_id,omitempty"`
	IsConfirmed bool    `json:"is_confirmed"`
	CreatedAt   string  `json:"created_at"`
}

// TransactionListResponse wraps a list of transactions.
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Count        int                   `json:"count"`
	Limit        int                   `json:"limit,omitempty"`
	Offset       int                   `json:"offset,omitempty"`
}

// RuleResponse represents a recurring rule in API responses.
type RuleResponse struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	StartDate   string  `json:"start_date"`
	Label       string  `json:"label,omitempty"`
	Frequency   string  `json:"frequency"`
	Interval    int     `json:"interval"`
	EndDate     *string `json:"end_date,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// RuleListResponse wraps a list of recurring rules.
type RuleListResponse struct {
	Rules []RuleResponse `json:"rules"`
	Count int            `json:"count"`
}

// SettingResponse represents one settings key/value pair.
type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SettingsResponse wraps the full settings table.
type SettingsResponse struct {
	Settings []SettingResponse `json:"settings"`
}

// BalanceResponse is returned by the balance endpoints.
type BalanceResponse struct {
	CurrentBalance float64 `json:"current_balance"`
}

// PreferencesResponse is returned by the user preference endpoints.
type PreferencesResponse struct {
	ShowAdvanced bool `json:"show_advanced"`
}

// CreatedResponse is returned by create endpoints.
type CreatedResponse struct {
	ID int64 `json:"id"`
}

// MessageResponse is a generic message response.
type MessageResponse struct {
	Message string `json:"message"`
}
