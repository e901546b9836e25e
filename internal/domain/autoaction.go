package domain

import "time"

// Trigger identifies what started an auto-action run.
type Trigger string

const (
	TriggerHTTP Trigger = "http"
	TriggerCron Trigger = "cron"
	TriggerCLI  Trigger = "cli"
)

// AccountStatus is the terminal state of one account inside a run.
type AccountStatus string

const (
	AccountStatusOK         AccountStatus = "ok"
	AccountStatusNoProducts AccountStatus = "no-products"
	AccountStatusError      AccountStatus = "error"
	AccountStatusSkipped    AccountStatus = "skipped"
)

// RunParams carries optional overrides for an auto-action run. Nil fields
// fall back to the configured defaults.
type RunParams struct {
	AccountID         string  `json:"account_id"`
	Country           *string `json:"country"`
	HorizonDays       *int    `json:"horizon_days"`
	MinDaysCover      *int    `json:"min_days_cover"`
	ProductLimit      *int    `json:"product_limit"`
	AutoExecute       *bool   `json:"auto_execute"`
	AutoExecuteMaxQty *int    `json:"auto_execute_max_qty"`
}

// RunSettings is the effective configuration of one run.
type RunSettings struct {
	AccountID         string
	Country           string
	HorizonDays       int
	MinDaysCover      int
	ProductLimit      int
	AutoExecute       bool
	AutoExecuteMaxQty int
}

// AccountResult is the outcome of processing a single account.
type AccountResult struct {
	AccountID string        `json:"account_id"`
	Status    AccountStatus `json:"status"`
	Products  int           `json:"products"`
	Inserted  int           `json:"inserted"`
	Executed  int           `json:"executed"`
	Country   *string       `json:"country"`
	ExportKey string        `json:"export_key,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// RunResult aggregates a run and echoes its effective configuration.
type RunResult struct {
	OK                bool            `json:"ok"`
	RunID             string          `json:"run_id"`
	Trigger           Trigger         `json:"trigger"`
	HorizonDays       int             `json:"horizon_days"`
	MinDaysCover      int             `json:"min_days_cover"`
	Country           *string         `json:"country"`
	ProductLimit      int             `json:"product_limit"`
	AutoExecute       bool            `json:"auto_execute"`
	AutoExecuteMaxQty int             `json:"auto_execute_max_qty"`
	Results           []AccountResult `json:"results"`
	StartedAt         time.Time       `json:"started_at"`
	FinishedAt        time.Time       `json:"finished_at"`
}

// RecomputeRequest asks the forecast service to refresh forecasts.
type RecomputeRequest struct {
	AccountID   string   `json:"account_id"`
	ProductIDs  []string `json:"product_ids"`
	HorizonDays int      `json:"horizon_days"`
	Country     *string  `json:"country,omitempty"`
}

// ForecastProductSummary is one product line of a recompute response.
type ForecastProductSummary struct {
	ProductID   string  `json:"product_id"`
	HorizonDays int     `json:"horizon_days"`
	Mean        float64 `json:"mean"`
	P10         float64 `json:"p10"`
	P90         float64 `json:"p90"`
}

// RecomputeResult is the forecast service confirmation.
type RecomputeResult struct {
	RunID    string                   `json:"run_id"`
	Products []ForecastProductSummary `json:"products"`
}
