package dto

import "time"

type ScheduleBurnDTO struct {
	TransactionID string    `json:"transaction_id" validate:"required,uuid4"`
	Amount        string    `json:"amount" validate:"required"`
	ScheduledFor  time.Time `json:"scheduled_for" validate:"required"`
}

type BurnResponseDTO struct {
	ID            string     `json:"id"`
	TransactionID string     `json:"transaction_id"`
	TokenMint     string     `json:"token_mint,omitempty"`
	TokenSymbol   string     `json:"token_symbol,omitempty"`
	Amount        string     `json:"amount"`
	ScheduledFor  time.Time  `json:"scheduled_for"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ExecutedAt    *time.Time `json:"executed_at,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type SchedulerStatusDTO struct {
	IsRunning         bool             `json:"is_running"`
	MaxWorkers        int              `json:"max_workers"`
	MaxRetries        int              `json:"max_retries"`
	RetryDelaySeconds int              `json:"retry_delay_seconds"`
	InFlight          int64            `json:"in_flight"`
	BurnCounts        map[string]int64 `json:"burn_counts"`
}

type UpdateConfigDTO struct {
	MaxWorkers        *int `json:"max_workers" validate:"omitempty,gte=1,lte=64"`
	MaxRetries        *int `json:"max_retries" validate:"omitempty,gte=1,lte=20"`
	RetryDelaySeconds *int `json:"retry_delay_seconds" validate:"omitempty,gte=1"`
}
