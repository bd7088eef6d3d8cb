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

const recentCheckInLimit = 7

// CheckInHandler serves daily mood check-ins. Every endpoint is scoped
// to the caller — check-ins are personal and never listed across users.
type CheckInHandler struct {
	checkIns repository.CheckInRepository
	logger   *zap.Logger
}

func NewCheckInHandler(checkIns repository.CheckInRepository, logger *zap.Logger) *CheckInHandler {
	return &CheckInHandler{checkIns: checkIns, logger: logger}
}

// Today handles GET /v1/me/checkins/today — the caller's check-in for
// the current date key, or null if they haven't checked in yet. Clients
// pass their local day as ?date=2006-01-02; "today" is the submitter's
// calendar, and the server can't know their timezone.
func (h *CheckInHandler) Today(c *gin.Context) {
	dateKey, err := resolveDateKey(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must look like " + models.DateKeyFormat})
		return
	}

	checkIn, err := h.checkIns.GetForDay(c.Request.Context(), callerID(c), dateKey)
	if err != nil {
		h.logger.Error("failed to get check-in", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load today's check-in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"check_in": checkIn})
}

type submitCheckInRequest struct {
	Mood    string `json:"mood" binding:"required"`
	Note    string `json:"note"`
	DateKey string `json:"date_key"`
}

// resolveDateKey picks the calendar day a check-in belongs to. The
// client's own day wins when supplied; the server's day is only a
// stand-in for clients that don't send one.
func resolveDateKey(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.DateKeyFor(time.Now()), nil
	}
	if _, err := time.Parse(models.DateKeyFormat, raw); err != nil {
		return "", err
	}
	return raw, nil
}

// Submit handles POST /v1/me/checkins. One check-in per user per day;
// the store enforces it, so two racing submissions can't both land — the
// loser gets the same 409 a plain double-tap does.
func (h *CheckInHandler) Submit(c *gin.Context) {
	var req submitCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mood := models.Mood(req.Mood)
	if !mood.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown mood"})
		return
	}

	dateKey, err := resolveDateKey(req.DateKey)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date_key must look like " + models.DateKeyFormat})
		return
	}

	checkIn, err := h.checkIns.Create(c.Request.Context(), models.DailyCheckIn{
		UserID:  callerID(c),
		Mood:    mood,
		Note:    strings.TrimSpace(req.Note),
		DateKey: dateKey,
	})
	if err != nil {
		h.logger.Error("failed to create check-in", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit check-in"})
		return
	}
	if checkIn == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "you've already checked in today"})
		return
	}

	c.JSON(http.StatusCreated, checkIn)
}

// Recent handles GET /v1/me/checkins — the caller's last week of
// entries, newest first.
func (h *CheckInHandler) Recent(c *gin.Context) {
	checkIns, err := h.checkIns.ListRecent(c.Request.Context(), callerID(c), recentCheckInLimit)
	if err != nil {
		h.logger.Error("failed to list check-ins", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load check-ins"})
		return
	}

	c.JSON(http.StatusOK, checkIns)
}
