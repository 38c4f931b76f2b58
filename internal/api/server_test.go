package api_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billprepared/backend/internal/api"
	"github.com/billprepared/backend/internal/api/dto"
	"github.com/billprepared/backend/internal/application/service"
	"github.com/billprepared/backend/internal/infrastructure/storage"
)

func newTestServer(t *testing.T) (*api.Server, *storage.MockRepository) {
	t.Helper()
	repo := storage.NewMockRepository()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	settings := service.NewSettingsService(repo, logger)
	require.NoError(t, settings.SeedDefaults())
	ledger := service.NewLedgerService(repo, settings, logger)
	imports := service.NewImportService(repo, settings, logger)

	server := api.NewServer(api.DefaultConfig(), ledger, settings, imports, logger)
	return server, repo
}

func doJSON(t *testing.T, server *api.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestServer_HealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.HealthResponse
	err := json.NewDecoder(rec.Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, "ok", response.Status)
}

func TestServer_TransactionEndpoints(t *testing.T) {
	t.Run("POST /api/transactions creates a transaction", func(t *testing.T) {
		server, repo := newTestServer(t)

		rec := doJSON(t, server, http.MethodPost, "/api/transactions",
			`{"description":"Rent","amount":1200,"date":"2025-04-01","label":"housing"}`)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var response dto.CreatedResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.NotZero(t, response.ID)
		assert.True(t, repo.InsertOccurrenceCalled)
	})

	t.Run("POST /api/transactions rejects a bad date", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doJSON(t, server, http.MethodPost, "/api/transactions",
			`{"description":"Rent","amount":1200,"date":"01/04/2025"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("GET /api/transactions/:id returns a transaction", func(t *testing.T) {
		server, repo := newTestServer(t)
		id := addOccurrence(repo, &storage.Occurrence{
			Description: "Rent", Amount: 1200,
			Date: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		})

		rec := doJSON(t, server, http.MethodGet, "/api/transactions/"+itoa(id), "")

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.TransactionResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "Rent", response.Description)
		assert.Equal(t, "2025-04-01", response.Date)
	})

	t.Run("GET /api/transactions/:id returns 404 for missing transaction", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doJSON(t, server, http.MethodGet, "/api/transactions/999", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("PUT /api/transactions/:id updates a standalone transaction", func(t *testing.T) {
		server, repo := newTestServer(t)
		id := addOccurrence(repo, &storage.Occurrence{
			Description: "Rent", Amount: 1200,
			Date: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		})

		rec := doJSON(t, server, http.MethodPut, "/api/transactions/"+itoa(id),
			`{"description":"Rent","amount":1250,"date":"2025-04-01"}`)

		assert.Equal(t, http.StatusOK, rec.Code)

		occ, err := repo.GetOccurrence(id)
		require.NoError(t, err)
		assert.Equal(t, 1250.00, occ.Amount)
	})

	t.Run("PUT /api/transactions/:id rejects an unknown edit mode", func(t *testing.T) {
		server, repo := newTestServer(t)
		ruleID, err := repo.InsertRule(&storage.RecurringRule{
			Description: "Gym", Amount: 50,
			StartDate: time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
			Frequency: "monthly", Interval: 1,
		})
		require.NoError(t, err)
		id := addOccurrence(repo, &storage.Occurrence{
			Description: "Gym", Amount: 50,
			Date:        time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC),
			IsRecurring: true, RecurringID: &ruleID,
		})

		rec := doJSON(t, server, http.MethodPut, "/api/transactions/"+itoa(id),
			`{"description":"Gym","amount":55,"date":"2025-04-10","edit_mode":"everything"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("DELETE /api/transactions/:id removes a transaction", func(t *testing.T) {
		server, repo := newTestServer(t)
		id := addOccurrence(repo, &storage.Occurrence{
			Description: "Rent", Amount: 1200,
			Date: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		})

		rec := doJSON(t, server, http.MethodDelete, "/api/transactions/"+itoa(id), "")

		assert.Equal(t, http.StatusOK, rec.Code)

		_, err := repo.GetOccurrence(id)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("POST /api/transactions/:id/confirm marks it paid", func(t *testing.T) {
		server, repo := newTestServer(t)
		id := addOccurrence(repo, &storage.Occurrence{
			Description: "Rent", Amount: 1200,
			Date: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		})

		rec := doJSON(t, server, http.MethodPost, "/api/transactions/"+itoa(id)+"/confirm", "")

		assert.Equal(t, http.StatusOK, rec.Code)

		occ, err := repo.GetOccurrence(id)
		require.NoError(t, err)
		assert.True(t, occ.IsConfirmed)
		assert.Equal(t, 1200.00, occ.Amount)
	})
}

func TestServer_RecurringEndpoints(t *testing.T) {
	t.Run("POST /api/recurring creates a rule and projects occurrences", func(t *testing.T) {
		server, repo := newTestServer(t)
		startDate := time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02")

		rec := doJSON(t, server, http.MethodPost, "/api/recurring",
			`{"description":"Netflix","amount":15.99,"start_date":"`+startDate+`","frequency":"monthly","interval":1}`)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var response dto.CreatedResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

		occurrences := repo.GetAllOccurrences()
		require.NotEmpty(t, occurrences)
		for _, occ := range occurrences {
			assert.Equal(t, "Netflix", occ.Description)
			assert.True(t, occ.IsRecurring)
			require.NotNil(t, occ.RecurringID)
			assert.Equal(t, response.ID, *occ.RecurringID)
		}
	})

	t.Run("POST /api/recurring rejects an unknown frequency", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doJSON(t, server, http.MethodPost, "/api/recurring",
			`{"description":"Netflix","amount":15.99,"start_date":"2025-04-01","frequency":"yearly","interval":1}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("DELETE /api/recurring/:id removes the rule and its occurrences", func(t *testing.T) {
		server, repo := newTestServer(t)
		startDate := time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02")

		rec := doJSON(t, server, http.MethodPost, "/api/recurring",
			`{"description":"Netflix","amount":15.99,"start_date":"`+startDate+`","frequency":"monthly","interval":1}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var created dto.CreatedResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

		rec = doJSON(t, server, http.MethodDelete, "/api/recurring/"+itoa(created.ID), "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, repo.GetAllOccurrences())
	})

	t.Run("GET /api/recurring/:id returns 404 for missing rule", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doJSON(t, server, http.MethodGet, "/api/recurring/999", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_SettingsEndpoints(t *testing.T) {
	t.Run("GET /api/settings returns seeded defaults", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doJSON(t, server, http.MethodGet, "/api/settings", "")

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.SettingsResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

		keys := make([]string, 0, len(response.Settings))
		for _, s := range response.Settings {
			keys = append(keys, s.Key)
		}
		assert.Contains(t, keys, "recurring_sensitivity")
		assert.Contains(t, keys, "forecast_period")
	})

	t.Run("POST /api/settings updates a valid setting", func(t *testing.T) {
		server, repo := newTestServer(t)

		rec := doJSON(t, server, http.MethodPost, "/api/settings",
			`{"key":"forecast_period","value":"6"}`)

		assert.Equal(t, http.StatusOK, rec.Code)

		value, err := repo.GetSetting("forecast_period")
		require.NoError(t, err)
		assert.Equal(t, "6", value)
	})

	t.Run("POST /api/settings rejects an invalid value", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doJSON(t, server, http.MethodPost, "/api/settings",
			`{"key":"recurring_sensitivity","value":"1.5"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("POST /api/settings/:key/restore resets the default", func(t *testing.T) {
		server, repo := newTestServer(t)
		require.NoError(t, repo.SetSetting("forecast_period", "6"))

		rec := doJSON(t, server, http.MethodPost, "/api/settings/forecast_period/restore", "")

		assert.Equal(t, http.StatusOK, rec.Code)

		value, err := repo.GetSetting("forecast_period")
		require.NoError(t, err)
		assert.Equal(t, "12", value)
	})
}

func TestServer_UserEndpoints(t *testing.T) {
	t.Run("balance round trip", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doJSON(t, server, http.MethodPut, "/api/balance", `{"current_balance":2500.50}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, server, http.MethodGet, "/api/balance", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.BalanceResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 2500.50, response.CurrentBalance)
	})

	t.Run("show_advanced only moves forward", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doJSON(t, server, http.MethodPost, "/api/user/preferences", `{"show_advanced":true}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, server, http.MethodPost, "/api/user/preferences", `{"show_advanced":false}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.PreferencesResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.True(t, response.ShowAdvanced)
	})
}

func TestServer_ImportEndpoints(t *testing.T) {
	t.Run("POST /api/import/csv/confirm reconciles pending occurrences", func(t *testing.T) {
		server, repo := newTestServer(t)
		id := addOccurrence(repo, &storage.Occurrence{
			Description: "NETFLIX.COM", Amount: 15.99,
			Date: time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
		})

		req := httptest.NewRequest(http.MethodPost, "/api/import/csv/confirm",
			strings.NewReader("05/03/2025,15.99,NETFLIX.COM"))
		req.Header.Set("Content-Type", "text/csv")
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		occ, err := repo.GetOccurrence(id)
		require.NoError(t, err)
		assert.True(t, occ.IsConfirmed)
	})

	t.Run("POST /api/import/csv/recurring reports candidates without writing", func(t *testing.T) {
		server, repo := newTestServer(t)

		csv := "05/01/2025,15.99,NETFLIX.COM\n05/02/2025,15.99,NETFLIX.COM\n05/03/2025,15.99,NETFLIX.COM"
		req := httptest.NewRequest(http.MethodPost, "/api/import/csv/recurring", strings.NewReader(csv))
		req.Header.Set("Content-Type", "text/csv")
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, repo.InsertOccurrenceCalled)
		assert.Contains(t, rec.Body.String(), "NETFLIX.COM")
	})

	t.Run("POST /api/import/confirm_update returns 404 for missing transaction", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := doJSON(t, server, http.MethodPost, "/api/import/confirm_update",
			`{"transaction_id":999,"new_amount":20,"update_future":false}`)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_CORS(t *testing.T) {
	server, _ := newTestServer(t)

	t.Run("sets CORS headers for any origin with wildcard config", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("handles OPTIONS preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/transactions", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func addOccurrence(repo *storage.MockRepository, o *storage.Occurrence) int64 {
	repo.AddOccurrence(o)
	return o.ID
}
