package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/hivedesk/hivedesk/internal/repository"
	"go.uber.org/zap"
)

// AnnouncementHandler serves the broadcast board and each user's
// personal notification inbox, both views over the same fan-out table.
type AnnouncementHandler struct {
	announcements repository.AnnouncementRepository
	publisher     Publisher
	logger        *zap.Logger
}

func NewAnnouncementHandler(
	announcements repository.AnnouncementRepository,
	publisher Publisher,
	logger *zap.Logger,
) *AnnouncementHandler {
	return &AnnouncementHandler{
		announcements: announcements,
		publisher:     publisher,
		logger:        logger,
	}
}

type postAnnouncementRequest struct {
	Title    string `json:"title" binding:"required"`
	Body     string `json:"body" binding:"required"`
	Priority string `json:"priority"`
}

// Post handles POST /v1/announcements — a broadcast from an admin or
// project lead. Priority defaults to info.
func (h *AnnouncementHandler) Post(c *gin.Context) {
	var req postAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	title := strings.TrimSpace(req.Title)
	body := strings.TrimSpace(req.Body)
	if title == "" || body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and body are required"})
		return
	}

	priority := models.AnnouncementPriority(req.Priority)
	if req.Priority == "" {
		priority = models.AnnouncementInfo
	}
	if !priority.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "priority must be info, warning or urgent"})
		return
	}

	ann, err := h.announcements.Create(c.Request.Context(), models.Announcement{
		Title:    title,
		Body:     body,
		Priority: priority,
		Type:     models.TypeBroadcast,
	})
	if err != nil {
		h.logger.Error("failed to post announcement", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to post announcement"})
		return
	}

	h.publisher.PublishAnnouncement(c.Request.Context(), ann)
	c.JSON(http.StatusCreated, ann)
}

// List handles GET /v1/announcements — the broadcast board, newest
// first. If the ordered query fails (a missing index, typically), fall
// back to an unordered fetch and sort here; the reader gets the same
// result either way.
func (h *AnnouncementHandler) List(c *gin.Context) {
	anns, err := h.announcements.ListOrdered(c.Request.Context())
	if err != nil {
		h.logger.Warn("ordered announcement query failed, falling back", zap.Error(err))
		anns, err = h.announcements.ListUnordered(c.Request.Context())
		if err != nil {
			h.logger.Error("failed to list announcements", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load announcements"})
			return
		}
		sortAnnouncementsDesc(anns)
	}

	broadcasts := make([]models.Announcement, 0, len(anns))
	for _, a := range anns {
		if a.IsBroadcast() {
			broadcasts = append(broadcasts, a)
		}
	}

	c.JSON(http.StatusOK, broadcasts)
}

// Personal handles GET /v1/me/announcements — everything targeted at the
// caller, split into the credentials inbox and the task inbox. The two
// buckets are disjoint; a promotion notice never shows up as a task.
func (h *AnnouncementHandler) Personal(c *gin.Context) {
	uid := callerID(c)

	anns, err := h.announcements.ListOrdered(c.Request.Context())
	if err != nil {
		h.logger.Warn("ordered announcement query failed, falling back", zap.Error(err))
		anns, err = h.announcements.ListUnordered(c.Request.Context())
		if err != nil {
			h.logger.Error("failed to list announcements", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notifications"})
			return
		}
		sortAnnouncementsDesc(anns)
	}

	promotions := make([]models.Announcement, 0)
	tasks := make([]models.Announcement, 0)
	for _, a := range anns {
		if a.TargetUID != uid {
			continue
		}
		switch a.Type {
		case models.TypePromotion:
			promotions = append(promotions, a)
		case models.TypeTask:
			tasks = append(tasks, a)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"promotions": promotions,
		"tasks":      tasks,
	})
}

// Delete handles DELETE /v1/announcements/:id.
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid announcement id"})
		return
	}

	if err := h.announcements.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("failed to delete announcement", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete announcement"})
		return
	}

	c.Status(http.StatusNoContent)
}

// sortAnnouncementsDesc sorts newest first, ties broken by ID so the
// fallback path yields the same order as the store-side query.
func sortAnnouncementsDesc(anns []models.Announcement) {
	sort.Slice(anns, func(i, j int) bool {
		if !anns[i].CreatedAt.Equal(anns[j].CreatedAt) {
			return anns[i].CreatedAt.After(anns[j].CreatedAt)
		}
		return anns[i].ID.String() > anns[j].ID.String()
	})
}
