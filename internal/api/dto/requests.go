package dto

// TransactionRequest is the payload for creating or updating a transaction.
// Dates are ISO "2006-01-02". EditMode applies only when updating an
// occurrence generated by a recurring rule: "single" detaches just that
// occurrence, "future" rewrites the rule from the edited date onward.
type TransactionRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Label       string  `json:"label,omitempty"`
	EditMode    string  `json:"edit_mode,omitempty"`
}

// RuleRequest is the payload for creating or updating a recurring rule.
type RuleRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	StartDate   string  `json:"start_date"`
	Label       string  `json:"label,omitempty"`
	Frequency   string  `json:"frequency"`
	Interval    int     `json:"interval"`
	EndDate     *string `json:"end_date,omitempty"`
}

// UpdateSettingRequest is the payload for POST /api/settings.
type UpdateSettingRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// UpdateBalanceRequest is the payload for PUT /api/balance.
type UpdateBalanceRequest struct {
	CurrentBalance float64 `json:"current_balance"`
}

// UpdatePreferencesRequest is the payload for POST /api/user/preferences.
type UpdatePreferencesRequest struct {
	ShowAdvanced bool `json:"show_advanced"`
}

// ConfirmUpdateRequest resolves one reviewed reconciliation item: confirm the
// occurrence at the bank amount, optionally carrying the new amount forward
// to the rule and its future unconfirmed occurrences.
type ConfirmUpdateRequest struct {
	TransactionID int64   `json:"transaction_id"`
	NewAmount     float64 `json:"new_amount"`
	UpdateFuture  bool    `json:"update_future"`
}
