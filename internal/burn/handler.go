package burn

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/solpyre/solpyre/common"
	"github.com/solpyre/solpyre/internal/dto"
	"github.com/solpyre/solpyre/middleware"
)

type BurnHandler struct {
	service BurnServiceInterface
}

func NewBurnHandler(s BurnServiceInterface) *BurnHandler {
	return &BurnHandler{service: s}
}

var _ BurnHandlerInterface = (*BurnHandler)(nil)

// RegisterRoutes wires the admin surface onto a router group.
func (h *BurnHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/burns", h.Create)
	r.GET("/burns", h.List)
	r.GET("/burns/:id", h.Get)
	r.POST("/burns/:id/retry", h.Retry)
	r.POST("/scheduler/pause", h.Pause)
	r.POST("/scheduler/resume", h.Resume)
	r.PATCH("/scheduler/config", h.UpdateConfig)
	r.GET("/scheduler/status", h.Status)
}

// Create schedules a new burn.
func (h *BurnHandler) Create(c *gin.Context) {
	var req dto.ScheduleBurnDTO

	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	resp, err := h.service.ScheduleBurn(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Get fetches a burn by id.
func (h *BurnHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, common.APIError{Message: "invalid burn id"})
		return
	}

	resp, err := h.service.GetBurn(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// List returns burns, optionally filtered by status.
func (h *BurnHandler) List(c *gin.Context) {
	burns, err := h.service.ListBurns(c.Request.Context(), c.Query("status"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, burns)
}

// Retry re-arms a failed burn.
func (h *BurnHandler) Retry(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, common.APIError{Message: "invalid burn id"})
		return
	}

	if err := h.service.RetryBurn(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Pause flips the scheduler kill-switch off.
func (h *BurnHandler) Pause(c *gin.Context) {
	if err := h.service.PauseScheduler(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Resume flips the scheduler kill-switch on.
func (h *BurnHandler) Resume(c *gin.Context) {
	if err := h.service.ResumeScheduler(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateConfig patches the live scheduler configuration.
func (h *BurnHandler) UpdateConfig(c *gin.Context) {
	var req dto.UpdateConfigDTO
	if !middleware.Bind(c, &req) {
		return
	}

	if err := h.service.UpdateConfig(c.Request.Context(), &req); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Status reports counts by state and the live config.
func (h *BurnHandler) Status(c *gin.Context) {
	status, err := h.service.SchedulerStatus(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, status)
}
