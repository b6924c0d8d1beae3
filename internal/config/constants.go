package config

import "time"

type BurnStatus string

type ExecutionStatus string

type NotificationType string

const (
	BurnStatusPending    BurnStatus = "pending"
	BurnStatusProcessing BurnStatus = "processing"
	BurnStatusConfirmed  BurnStatus = "confirmed"
	BurnStatusRetrying   BurnStatus = "retrying"
	BurnStatusFailed     BurnStatus = "failed"

	ExecutionStatusStarted   ExecutionStatus = "started"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"

	NotificationBurnCompleted NotificationType = "burn_completed"
	NotificationBurnFailed    NotificationType = "burn_failed"
)

// AllBurnStatuses is the order status counts are reported in.
var AllBurnStatuses = []BurnStatus{
	BurnStatusPending,
	BurnStatusProcessing,
	BurnStatusConfirmed,
	BurnStatusRetrying,
	BurnStatusFailed,
}

// EligibleBurnStatuses are the statuses the selector considers runnable.
// A retrying burn never flips back to pending; it stays retrying and
// becomes eligible again once its next_retry_at has passed.
var EligibleBurnStatuses = []BurnStatus{
	BurnStatusPending,
	BurnStatusRetrying,
}

const (
	// InFlightWindow bounds how far back started executions count against
	// the worker cap. Older started rows with no terminal state are treated
	// as orphans from a crashed process and do not hold slots forever.
	InFlightWindow = 5 * time.Minute

	// DefaultConfirmTimeout bounds how long a single attempt waits for
	// on-chain confirmation before the attempt is recorded as failed.
	DefaultConfirmTimeout = 60 * time.Second
)
