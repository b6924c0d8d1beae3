// Package notify records burn outcomes for the dashboard. Writes are
// fire-and-forget: a failed insert is logged and never fails the attempt
// that produced it.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/solpyre/solpyre/internal/config"
	"github.com/solpyre/solpyre/internal/models"
)

// NotificationStore is the slice of the repository the notifier needs.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

type Notifier struct {
	store NotificationStore
	log   zerolog.Logger
}

func New(store NotificationStore, log zerolog.Logger) *Notifier {
	return &Notifier{store: store, log: log.With().Str("component", "notify").Logger()}
}

// BurnCompleted records a successful burn.
func (n *Notifier) BurnCompleted(ctx context.Context, burn *models.ScheduledBurn, executionID, signature string, fee decimal.Decimal) {
	payload, _ := json.Marshal(map[string]any{
		"burn_id":      burn.ID,
		"amount":       burn.Amount.String(),
		"tx_signature": signature,
		"fee_sol":      fee.String(),
		"completed_at": time.Now().UTC().Format(time.RFC3339),
	})

	n.create(ctx, &models.Notification{
		Type:            config.NotificationBurnCompleted,
		ScheduledBurnID: &burn.ID,
		ExecutionID:     &executionID,
		Payload:         datatypes.JSON(payload),
	})
}

// BurnFailed records a failed attempt. Terminal distinguishes exhausted
// retries from a retry-scheduled failure.
func (n *Notifier) BurnFailed(ctx context.Context, burn *models.ScheduledBurn, executionID, cause string, terminal bool) {
	payload, _ := json.Marshal(map[string]any{
		"burn_id":   burn.ID,
		"amount":    burn.Amount.String(),
		"error":     cause,
		"terminal":  terminal,
		"failed_at": time.Now().UTC().Format(time.RFC3339),
	})

	n.create(ctx, &models.Notification{
		Type:            config.NotificationBurnFailed,
		ScheduledBurnID: &burn.ID,
		ExecutionID:     &executionID,
		Payload:         datatypes.JSON(payload),
	})
}

func (n *Notifier) create(ctx context.Context, record *models.Notification) {
	if err := n.store.CreateNotification(ctx, record); err != nil {
		n.log.Error().Err(err).Str("type", string(record.Type)).Msg("failed to write notification")
	}
}
