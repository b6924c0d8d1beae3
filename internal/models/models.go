package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/solpyre/solpyre/internal/config"
)

// Transaction is the parent record a scheduled burn hangs off: the token
// being burned and the wallet that signs the burn. The wallet's private key
// is stored encrypted (AES-256-GCM, see internal/vault) and only ever
// decrypted inside an execution attempt.
type Transaction struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	TokenMint     string `gorm:"type:varchar(64);not null;index"`
	TokenSymbol   string `gorm:"type:varchar(32)"`
	TokenDecimals uint8  `gorm:"not null"`
	WalletPubkey  string `gorm:"type:varchar(64);not null"`
	WalletKeyEnc  string `gorm:"type:text;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// ScheduledBurn is one unit of scheduled work. Status processing implies
// exactly one started BurnExecution owns the row; the conditional status
// update in the repository is what enforces that across processes.
type ScheduledBurn struct {
	ID            string            `gorm:"type:uuid;primaryKey"`
	TransactionID string            `gorm:"type:uuid;not null;index"`
	Transaction   *Transaction      `gorm:"foreignKey:TransactionID"`
	ScheduledFor  time.Time         `gorm:"not null;index"`
	Amount        decimal.Decimal   `gorm:"type:numeric(38,9);not null"`
	Status        config.BurnStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	RetryCount    int               `gorm:"not null;default:0"`
	NextRetryAt   *time.Time
	ExecutedAt    *time.Time
	ErrorMessage  string `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (b *ScheduledBurn) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = config.BurnStatusPending
	}
	return nil
}

// BurnExecution is one concrete attempt at executing a burn. Instant burns
// have no parent ScheduledBurn, so the reference is nullable. Rows are
// immutable once they reach a terminal status.
type BurnExecution struct {
	ID              string                 `gorm:"type:uuid;primaryKey"`
	ScheduledBurnID *string                `gorm:"type:uuid;index"`
	TransactionID   string                 `gorm:"type:uuid;not null;index"`
	Status          config.ExecutionStatus `gorm:"type:varchar(20);not null;default:'started';index"`
	TxSignature     *string                `gorm:"type:varchar(128)"`
	StartedAt       time.Time              `gorm:"not null;index"`
	CompletedAt     *time.Time
	GasUsed         decimal.NullDecimal `gorm:"type:numeric(38,9)"`
	ErrorMessage    string              `gorm:"type:text"`
	CreatedAt       time.Time
}

func (e *BurnExecution) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = config.ExecutionStatusStarted
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}
	return nil
}

// SystemConfig is the singleton row governing the scheduler loop. It is
// mutated only by the admin API and read fresh by the loop every tick, so
// operators can reconfigure a live scheduler without a restart.
type SystemConfig struct {
	ID                int  `gorm:"primaryKey"`
	MaxWorkers        int  `gorm:"not null;default:3"`
	MaxRetries        int  `gorm:"not null;default:3"`
	RetryDelaySeconds int  `gorm:"not null;default:300"`
	IsRunning         bool `gorm:"not null;default:true"`
	UpdatedAt         time.Time
}

// SystemConfigID is the fixed primary key of the singleton row.
const SystemConfigID = 1

// RetryDelay returns the configured retry delay as a duration.
func (c *SystemConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// Notification is a fire-and-forget record written on burn completion or
// failure. The dashboard renders these; nothing in the scheduler reads them.
type Notification struct {
	ID              string                  `gorm:"type:uuid;primaryKey"`
	Type            config.NotificationType `gorm:"type:varchar(32);not null;index"`
	ScheduledBurnID *string                 `gorm:"type:uuid;index"`
	ExecutionID     *string                 `gorm:"type:uuid"`
	Payload         datatypes.JSON          `gorm:"type:jsonb"`
	CreatedAt       time.Time
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
