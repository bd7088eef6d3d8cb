package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/hivedesk/hivedesk/internal/repository"
	"go.uber.org/zap"
)

const awardHistoryLimit = 6

// AwardHandler serves the employee-of-the-month record: one award per
// calendar month, admin-written, visible to everyone.
type AwardHandler struct {
	awards repository.AwardRepository
	users  repository.UserRepository
	logger *zap.Logger
}

func NewAwardHandler(awards repository.AwardRepository, users repository.UserRepository, logger *zap.Logger) *AwardHandler {
	return &AwardHandler{awards: awards, users: users, logger: logger}
}

type saveAwardRequest struct {
	EmployeeID string `json:"employee_id" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
}

// Save handles PUT /v1/awards — set (or replace) the current month's
// award. Keyed by month, so saving twice in one month overwrites.
func (h *AwardHandler) Save(c *gin.Context) {
	var req saveAwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a reason is required"})
		return
	}

	employee, err := h.users.GetByID(c.Request.Context(), req.EmployeeID)
	if err != nil {
		h.logger.Error("failed to resolve employee", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save award"})
		return
	}
	if employee == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown employee: " + req.EmployeeID})
		return
	}

	now := time.Now()
	award, err := h.awards.Save(c.Request.Context(), models.MonthlyAward{
		ID:             models.MonthKeyFor(now),
		EmployeeID:     employee.ID,
		EmployeeEmail:  employee.Email,
		Reason:         reason,
		Month:          models.MonthLabelFor(now),
		AwardedByEmail: callerEmail(c),
	})
	if err != nil {
		h.logger.Error("failed to save award", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save award"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"award":   award,
		"message": employee.Email + " is Employee of the Month for " + award.Month + "!",
	})
}

// Current handles GET /v1/awards/current.
func (h *AwardHandler) Current(c *gin.Context) {
	award, err := h.awards.GetByMonth(c.Request.Context(), models.MonthKeyFor(time.Now()))
	if err != nil {
		h.logger.Error("failed to get award", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load the award"})
		return
	}
	if award == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no award for this month yet"})
		return
	}

	c.JSON(http.StatusOK, award)
}

// History handles GET /v1/awards — the most recent awards, newest first.
func (h *AwardHandler) History(c *gin.Context) {
	awards, err := h.awards.ListHistory(c.Request.Context(), awardHistoryLimit)
	if err != nil {
		h.logger.Error("failed to list awards", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load awards"})
		return
	}

	c.JSON(http.StatusOK, awards)
}
