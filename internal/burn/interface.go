package burn

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/solpyre/solpyre/internal/config"
	"github.com/solpyre/solpyre/internal/dto"
	"github.com/solpyre/solpyre/internal/models"
)

// BurnRepoInterface is the store contract the scheduler and admin surface
// share. All status transitions go through TryTransition, a conditional
// single-row update: the store is the sole arbiter of job ownership.
type BurnRepoInterface interface {
	// FindEligibleBurns returns up to limit burns that are due, inside the
	// retry ceiling, and in an eligible status, earliest-due first with id
	// as the tie-break. Parent transactions are preloaded.
	FindEligibleBurns(ctx context.Context, now time.Time, maxRetries, limit int) ([]models.ScheduledBurn, error)

	// TryTransition moves a burn from one status to another, applying
	// fields in the same update. It reports false when the burn was not in
	// the expected status, which callers treat as lost-the-race, not error.
	TryTransition(ctx context.Context, id string, from, to config.BurnStatus, fields map[string]any) (bool, error)

	// CountInFlightExecutions counts started executions newer than since.
	CountInFlightExecutions(ctx context.Context, since time.Time) (int64, error)

	CreateExecution(ctx context.Context, exec *models.BurnExecution) error
	UpdateExecution(ctx context.Context, id string, fields map[string]any) error

	GetSystemConfig(ctx context.Context) (*models.SystemConfig, error)
	SetSchedulerRunning(ctx context.Context, running bool) error
	UpdateSystemConfig(ctx context.Context, fields map[string]any) error

	CreateNotification(ctx context.Context, n *models.Notification) error

	CreateBurn(ctx context.Context, b *models.ScheduledBurn) error
	GetBurn(ctx context.Context, id string) (*models.ScheduledBurn, error)
	ListBurns(ctx context.Context, status config.BurnStatus, limit int) ([]models.ScheduledBurn, error)
	CountBurnsByStatus(ctx context.Context) (map[config.BurnStatus]int64, error)
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
}

// BurnServiceInterface is the admin-facing business logic contract.
type BurnServiceInterface interface {
	ScheduleBurn(ctx context.Context, req *dto.ScheduleBurnDTO) (*dto.BurnResponseDTO, error)
	GetBurn(ctx context.Context, id string) (*dto.BurnResponseDTO, error)
	ListBurns(ctx context.Context, status string) ([]dto.BurnResponseDTO, error)
	RetryBurn(ctx context.Context, id string) error
	PauseScheduler(ctx context.Context) error
	ResumeScheduler(ctx context.Context) error
	UpdateConfig(ctx context.Context, req *dto.UpdateConfigDTO) error
	SchedulerStatus(ctx context.Context) (*dto.SchedulerStatusDTO, error)
}

// BurnHandlerInterface is the HTTP handler contract.
type BurnHandlerInterface interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	List(c *gin.Context)
	Retry(c *gin.Context)
	Pause(c *gin.Context)
	Resume(c *gin.Context)
	UpdateConfig(c *gin.Context)
	Status(c *gin.Context)
}
