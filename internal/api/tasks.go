package api

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/hivedesk/hivedesk/internal/repository"
	"github.com/hivedesk/hivedesk/internal/workflows"
	"go.uber.org/zap"
)

// TaskHandler serves the per-community task board and the caller's
// personal task list.
type TaskHandler struct {
	tasks       repository.TaskRepository
	communities repository.CommunityRepository
	assignment  *workflows.Assignment
	publisher   Publisher
	logger      *zap.Logger
}

func NewTaskHandler(
	tasks repository.TaskRepository,
	communities repository.CommunityRepository,
	assignment *workflows.Assignment,
	publisher Publisher,
	logger *zap.Logger,
) *TaskHandler {
	return &TaskHandler{
		tasks:       tasks,
		communities: communities,
		assignment:  assignment,
		publisher:   publisher,
		logger:      logger,
	}
}

type createTaskRequest struct {
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description"`
	AssignedToID string     `json:"assigned_to_id" binding:"required"`
	Priority     string     `json:"priority" binding:"required"`
	DueDate      *time.Time `json:"due_date"`
}

// Create handles POST /v1/communities/:id/tasks. Only the community's own
// project lead may assign, and only to a current member. Runs the
// assignment saga: task write first, assignee notification second.
func (h *TaskHandler) Create(c *gin.Context) {
	community, ok := h.loadCommunity(c)
	if !ok {
		return
	}

	if callerRole(c) != models.RoleAdmin && community.ProjectLeadID != callerID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only this community's project lead can assign tasks"})
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task title cannot be empty"})
		return
	}

	priority := models.TaskPriority(req.Priority)
	if !priority.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "priority must be low, medium or high"})
		return
	}

	var assignee *models.Member
	for i := range community.Members {
		if community.Members[i].UserID == req.AssignedToID {
			assignee = &community.Members[i]
			break
		}
	}
	if assignee == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "the assignee is not a member of this community"})
		return
	}

	draft := models.Task{
		CommunityID:     community.ID,
		CommunityName:   community.Name,
		Title:           title,
		Description:     strings.TrimSpace(req.Description),
		AssignedToID:    assignee.UserID,
		AssignedToEmail: assignee.Email,
		AssignedByEmail: callerEmail(c),
		Priority:        priority,
		Status:          models.StatusTodo,
		DueDate:         req.DueDate,
	}

	result := h.assignment.Assign(c.Request.Context(), draft)
	if result.Task == nil {
		h.logger.Error("failed to create task", zap.Error(result.Err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Message()})
		return
	}
	if result.Notified {
		h.publisher.PublishAnnouncement(c.Request.Context(), result.Announcement)
	}

	c.JSON(http.StatusCreated, gin.H{
		"task":     result.Task,
		"notified": result.Notified,
		"message":  result.Message(),
	})
}

// ListByCommunity handles GET /v1/communities/:id/tasks — newest first.
func (h *TaskHandler) ListByCommunity(c *gin.Context) {
	community, ok := h.loadCommunity(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.ListByCommunity(c.Request.Context(), community.ID)
	if err != nil {
		h.logger.Error("failed to list tasks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tasks"})
		return
	}

	c.JSON(http.StatusOK, tasks)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles PATCH /v1/communities/:id/tasks/:taskID/status.
// Only the assignee moves a task. Moving into done stamps completedAt;
// moving out of done clears it — a backward move is an undo, and a task
// that isn't done has no completion time.
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	community, ok := h.loadCommunity(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("taskID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := models.TaskStatus(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be todo, inProgress or done"})
		return
	}

	task, err := h.tasks.GetByID(c.Request.Context(), community.ID, taskID)
	if err != nil {
		h.logger.Error("failed to get task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update task"})
		return
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if task.AssignedToID != callerID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the assignee can update this task"})
		return
	}

	var completedAt *time.Time
	if status == models.StatusDone {
		now := time.Now().UTC()
		completedAt = &now
	}

	if err := h.tasks.UpdateStatus(c.Request.Context(), community.ID, taskID, status, completedAt); err != nil {
		h.logger.Error("failed to update task status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update task"})
		return
	}

	task.Status = status
	task.CompletedAt = completedAt
	c.JSON(http.StatusOK, task)
}

// Delete handles DELETE /v1/communities/:id/tasks/:taskID. The
// community's lead or an admin.
func (h *TaskHandler) Delete(c *gin.Context) {
	community, ok := h.loadCommunity(c)
	if !ok {
		return
	}

	if callerRole(c) != models.RoleAdmin && community.ProjectLeadID != callerID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only this community's project lead can delete tasks"})
		return
	}

	taskID, err := uuid.Parse(c.Param("taskID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), community.ID, taskID); err != nil {
		h.logger.Error("failed to delete task", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete task"})
		return
	}

	c.Status(http.StatusNoContent)
}

// MyTasks handles GET /v1/me/tasks — the caller's tasks, newest first.
// Fans out over every community and filters by assignee only; tasks are
// not reassigned when someone leaves a community, so membership must not
// gate the list. No cross-community index exists.
func (h *TaskHandler) MyTasks(c *gin.Context) {
	uid := callerID(c)

	communities, err := h.communities.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list communities", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load your tasks"})
		return
	}

	mine := make([]models.Task, 0)
	for i := range communities {
		tasks, err := h.tasks.ListByCommunity(c.Request.Context(), communities[i].ID)
		if err != nil {
			h.logger.Error("failed to list tasks",
				zap.String("community_id", communities[i].ID.String()),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load your tasks"})
			return
		}
		for _, t := range tasks {
			if t.AssignedToID == uid {
				mine = append(mine, t)
			}
		}
	}

	sort.Slice(mine, func(i, j int) bool {
		return mine[i].CreatedAt.After(mine[j].CreatedAt)
	})

	c.JSON(http.StatusOK, mine)
}

// loadCommunity lives on TaskHandler too; the two handlers resolve the
// same path parameter against the same store.
func (h *TaskHandler) loadCommunity(c *gin.Context) (*models.Community, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return nil, false
	}

	community, err := h.communities.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to get community", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load community"})
		return nil, false
	}
	if community == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "community not found"})
		return nil, false
	}

	return community, true
}
