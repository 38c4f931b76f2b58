package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/billprepared/backend/internal/domain/detector"
	"github.com/billprepared/backend/internal/domain/matcher"
	"github.com/billprepared/backend/internal/infrastructure/storage"
)

// Setting keys
const (
	KeyRecurringSensitivity   = "recurring_sensitivity"
	KeyAutoConfirmSensitivity = "auto_confirm_sensitivity"
	KeyRecurringAlgorithm     = "custom_recurring_algorithm"
	KeyAutoConfirmAlgorithm   = "custom_auto_confirm_algorithm"
	KeyDateFormat             = "date_format"
	KeyForecastPeriod         = "forecast_period"
)

// ErrUnknownSetting is returned for keys outside the settings surface.
var ErrUnknownSetting = errors.New("unknown setting")

// ErrInvalidSetting is returned when a value fails validation.
var ErrInvalidSetting = errors.New("invalid setting value")

// RecurringAlgorithm is the JSON shape of custom_recurring_algorithm.
type RecurringAlgorithm struct {
	MinOccurrences     int                `json:"min_occurrences"`
	IntervalTolerance  float64            `json:"interval_tolerance"`
	AmountTolerance    float64            `json:"amount_tolerance"`
	FrequencyDetection FrequencyDetection `json:"frequency_detection"`
}

// FrequencyDetection holds the gap units used to classify frequencies.
type FrequencyDetection struct {
	Daily   int `json:"daily"`
	Weekly  int `json:"weekly"`
	Monthly int `json:"monthly"`
}

// AutoConfirmAlgorithm is the JSON shape of custom_auto_confirm_algorithm.
type AutoConfirmAlgorithm struct {
	SimilarityThreshold float64        `json:"similarity_threshold"`
	AmountTolerance     float64        `json:"amount_tolerance"`
	DateDiffMax         int            `json:"date_diff_max"`
	HighConfidence      HighConfidence `json:"high_confidence"`
}

// HighConfidence holds the gates above which a match confirms without review.
type HighConfidence struct {
	Similarity float64 `json:"similarity"`
	Amount     float64 `json:"amount"`
}

var dateFormats = map[string]bool{
	"DD-MMMM-YYYY": true,
	"DD-MM-YYYY":   true,
	"MM-DD-YYYY":   true,
	"YYYY-MM-DD":   true,
}

// defaultSettings holds the seeded value for every known key.
var defaultSettings = map[string]string{
	KeyRecurringSensitivity:   "0.8",
	KeyAutoConfirmSensitivity: "0.7",
	KeyRecurringAlgorithm:     `{"min_occurrences":2,"interval_tolerance":0.3,"amount_tolerance":0.1,"frequency_detection":{"daily":1,"weekly":7,"monthly":30}}`,
	KeyAutoConfirmAlgorithm:   `{"similarity_threshold":0.7,"amount_tolerance":0.05,"date_diff_max":3,"high_confidence":{"similarity":0.9,"amount":0.01}}`,
	KeyDateFormat:             "DD-MMMM-YYYY",
	KeyForecastPeriod:         "12",
}

// SettingsService manages the runtime-tunable settings table and exposes
// typed views of the algorithm knobs.
type SettingsService struct {
	storage storage.Repository
	logger  *slog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(store storage.Repository, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		storage: store,
		logger:  logger,
	}
}

// SeedDefaults writes the default value for every key that is missing.
// Existing values are never overwritten.
func (s *SettingsService) SeedDefaults() error {
	for key, value := range defaultSettings {
		_, err := s.storage.GetSetting(key)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to read setting %s: %w", key, err)
		}
		if err := s.storage.SetSetting(key, value); err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", key, err)
		}
		s.logger.Debug("seeded default setting", "key", key)
	}
	return nil
}

// GetAll returns every setting with its raw value.
func (s *SettingsService) GetAll() ([]storage.Setting, error) {
	return s.storage.ListSettings()
}

// Get returns the raw value for a key.
func (s *SettingsService) Get(key string) (string, error) {
	return s.storage.GetSetting(key)
}

// Update validates and stores a new value for a known key.
func (s *SettingsService) Update(key, value string) error {
	if _, known := defaultSettings[key]; !known {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	if err := validateSetting(key, value); err != nil {
		return err
	}
	if err := s.storage.SetSetting(key, value); err != nil {
		return err
	}

	s.logger.Info("setting updated", "key", key)
	return nil
}

// Restore resets a known key to its default value.
func (s *SettingsService) Restore(key string) (string, error) {
	value, known := defaultSettings[key]
	if !known {
		return "", fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	if err := s.storage.SetSetting(key, value); err != nil {
		return "", err
	}

	s.logger.Info("setting restored to default", "key", key)
	return value, nil
}

func validateSetting(key, value string) error {
	switch key {
	case KeyRecurringSensitivity, KeyAutoConfirmSensitivity:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("%w: %s must be a number in [0,1]", ErrInvalidSetting, key)
		}
	case KeyForecastPeriod:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 120 {
			return fmt.Errorf("%w: %s must be an integer in 1..120", ErrInvalidSetting, key)
		}
	case KeyDateFormat:
		if !dateFormats[value] {
			return fmt.Errorf("%w: unsupported date format %q", ErrInvalidSetting, value)
		}
	case KeyRecurringAlgorithm:
		var alg RecurringAlgorithm
		if err := json.Unmarshal([]byte(value), &alg); err != nil {
			return fmt.Errorf("%w: %s is not valid JSON: %v", ErrInvalidSetting, key, err)
		}
		if alg.MinOccurrences < 1 {
			return fmt.Errorf("%w: min_occurrences must be >= 1", ErrInvalidSetting)
		}
	case KeyAutoConfirmAlgorithm:
		var alg AutoConfirmAlgorithm
		if err := json.Unmarshal([]byte(value), &alg); err != nil {
			return fmt.Errorf("%w: %s is not valid JSON: %v", ErrInvalidSetting, key, err)
		}
		if alg.SimilarityThreshold < 0 || alg.SimilarityThreshold > 1 {
			return fmt.Errorf("%w: similarity_threshold must be in [0,1]", ErrInvalidSetting)
		}
	}
	return nil
}

// DetectorConfig builds the pattern-detection config from the stored
// algorithm blob, falling back to defaults on any parse problem.
func (s *SettingsService) DetectorConfig() detector.Config {
	cfg := detector.DefaultConfig()

	raw, err := s.storage.GetSetting(KeyRecurringAlgorithm)
	if err != nil {
		return cfg
	}

	var alg RecurringAlgorithm
	if err := json.Unmarshal([]byte(raw), &alg); err != nil {
		s.logger.Warn("ignoring malformed recurring algorithm setting", "error", err)
		return cfg
	}

	if alg.MinOccurrences >= 1 {
		cfg.MinOccurrences = alg.MinOccurrences
	}
	if alg.IntervalTolerance > 0 {
		cfg.IntervalTolerance = alg.IntervalTolerance
	}
	if alg.AmountTolerance > 0 {
		cfg.AmountTolerance = alg.AmountTolerance
	}
	if alg.FrequencyDetection.Daily > 0 {
		cfg.DailyGapDays = alg.FrequencyDetection.Daily
	}
	if alg.FrequencyDetection.Weekly > 0 {
		cfg.WeeklyGapDays = alg.FrequencyDetection.Weekly
	}
	if alg.FrequencyDetection.Monthly > 0 {
		cfg.MonthlyGapDays = alg.FrequencyDetection.Monthly
	}

	return cfg
}

// MatcherConfig builds the reconciliation scoring config from the stored
// algorithm blob, falling back to defaults on any parse problem.
func (s *SettingsService) MatcherConfig() matcher.Config {
	cfg := matcher.DefaultConfig()

	raw, err := s.storage.GetSetting(KeyAutoConfirmAlgorithm)
	if err != nil {
		return cfg
	}

	var alg AutoConfirmAlgorithm
	if err := json.Unmarshal([]byte(raw), &alg); err != nil {
		s.logger.Warn("ignoring malformed auto-confirm algorithm setting", "error", err)
		return cfg
	}

	if alg.SimilarityThreshold > 0 {
		cfg.MinScore = alg.SimilarityThreshold
	}
	if alg.AmountTolerance > 0 {
		cfg.AutoConfirmAmountTolerance = alg.AmountTolerance
	}
	if alg.DateDiffMax > 0 {
		cfg.DateDiffMaxDays = alg.DateDiffMax
	}
	if alg.HighConfidence.Similarity > 0 {
		cfg.AutoConfirmScore = alg.HighConfidence.Similarity
	}

	return cfg
}

// ForecastMonths returns the forecast window length in months.
func (s *SettingsService) ForecastMonths() int {
	raw, err := s.storage.GetSetting(KeyForecastPeriod)
	if err != nil {
		return 12
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 12
	}
	return n
}
