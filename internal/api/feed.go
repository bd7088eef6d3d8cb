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

// FeedHandler serves each community's append-only message log.
type FeedHandler struct {
	feed        repository.FeedRepository
	communities repository.CommunityRepository
	publisher   Publisher
	logger      *zap.Logger
}

func NewFeedHandler(
	feed repository.FeedRepository,
	communities repository.CommunityRepository,
	publisher Publisher,
	logger *zap.Logger,
) *FeedHandler {
	return &FeedHandler{
		feed:        feed,
		communities: communities,
		publisher:   publisher,
		logger:      logger,
	}
}

// List handles GET /v1/communities/:id/feed — oldest first, a chat log
// reads top-down. Same ordered-query-then-client-sort fallback as the
// announcement board.
func (h *FeedHandler) List(c *gin.Context) {
	community, ok := h.loadCommunity(c)
	if !ok {
		return
	}

	if callerRole(c) != models.RoleAdmin && !community.HasMember(callerID(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this community"})
		return
	}

	messages, err := h.feed.ListOrdered(c.Request.Context(), community.ID)
	if err != nil {
		h.logger.Warn("ordered feed query failed, falling back", zap.Error(err))
		messages, err = h.feed.ListUnordered(c.Request.Context(), community.ID)
		if err != nil {
			h.logger.Error("failed to list feed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load the feed"})
			return
		}
		sortFeedAsc(messages)
	}

	c.JSON(http.StatusOK, messages)
}

type postFeedRequest struct {
	Body string `json:"body" binding:"required"`
}

// Post handles POST /v1/communities/:id/feed. Members post as
// themselves; an admin posts as the workspace, with no sender identity
// on the message.
func (h *FeedHandler) Post(c *gin.Context) {
	community, ok := h.loadCommunity(c)
	if !ok {
		return
	}

	isAdmin := callerRole(c) == models.RoleAdmin
	if !isAdmin && !community.HasMember(callerID(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this community"})
		return
	}

	var req postFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message cannot be empty"})
		return
	}

	draft := models.FeedMessage{
		CommunityID: community.ID,
		Body:        body,
	}
	if isAdmin {
		draft.IsAdminPost = true
		draft.SenderEmail = "Workspace Admin"
	} else {
		draft.SenderID = callerID(c)
		draft.SenderEmail = callerEmail(c)
	}

	msg, err := h.feed.Create(c.Request.Context(), draft)
	if err != nil {
		h.logger.Error("failed to post feed message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to post message"})
		return
	}

	h.publisher.PublishFeedMessage(c.Request.Context(), msg)
	c.JSON(http.StatusCreated, msg)
}

// Delete handles DELETE /v1/communities/:id/feed/:messageID — admin
// moderation only; members cannot delete, not even their own posts.
func (h *FeedHandler) Delete(c *gin.Context) {
	community, ok := h.loadCommunity(c)
	if !ok {
		return
	}

	messageID, err := uuid.Parse(c.Param("messageID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	if err := h.feed.Delete(c.Request.Context(), community.ID, messageID); err != nil {
		h.logger.Error("failed to delete feed message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete message"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *FeedHandler) loadCommunity(c *gin.Context) (*models.Community, bool) {
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

// sortFeedAsc sorts oldest first, ties broken by ID, matching the
// store-side ordering.
func sortFeedAsc(messages []models.FeedMessage) {
	sort.Slice(messages, func(i, j int) bool {
		if !messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].CreatedAt.Before(messages[j].CreatedAt)
		}
		return messages[i].ID.String() < messages[j].ID.String()
	})
}
