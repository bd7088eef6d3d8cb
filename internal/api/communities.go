package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hivedesk/hivedesk/internal/middleware"
	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/hivedesk/hivedesk/internal/repository"
	"github.com/hivedesk/hivedesk/internal/workflows"
	"go.uber.org/zap"
)

// Publisher pushes committed writes to live subscribers. Satisfied by
// *notify.Broker; tests pass a no-op.
type Publisher interface {
	PublishAnnouncement(ctx context.Context, ann *models.Announcement)
	PublishFeedMessage(ctx context.Context, msg *models.FeedMessage)
}

// CommunityHandler serves the community registry, including the
// lead-assignment saga.
type CommunityHandler struct {
	communities repository.CommunityRepository
	users       repository.UserRepository
	promotion   *workflows.Promotion
	publisher   Publisher
	logger      *zap.Logger
}

func NewCommunityHandler(
	communities repository.CommunityRepository,
	users repository.UserRepository,
	promotion *workflows.Promotion,
	publisher Publisher,
	logger *zap.Logger,
) *CommunityHandler {
	return &CommunityHandler{
		communities: communities,
		users:       users,
		promotion:   promotion,
		publisher:   publisher,
		logger:      logger,
	}
}

type createCommunityRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Project     string   `json:"project"`
	MemberIDs   []string `json:"member_ids"`
}

// Create handles POST /v1/communities. Member emails are snapshotted from
// the directory at creation time.
func (h *CommunityHandler) Create(c *gin.Context) {
	var req createCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "community name cannot be empty"})
		return
	}

	members := make([]models.Member, 0, len(req.MemberIDs))
	for _, id := range req.MemberIDs {
		user, err := h.users.GetByID(c.Request.Context(), id)
		if err != nil {
			h.logger.Error("failed to resolve member", zap.String("user_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create community"})
			return
		}
		if user == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown member: " + id})
			return
		}
		members = append(members, models.Member{UserID: user.ID, Email: user.Email})
	}

	community, err := h.communities.Create(
		c.Request.Context(),
		name,
		strings.TrimSpace(req.Description),
		strings.TrimSpace(req.Project),
		members,
	)
	if err != nil {
		h.logger.Error("failed to create community", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create community"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"community": community,
		"message":   "Community \"" + community.Name + "\" created!",
	})
}

// List handles GET /v1/communities — newest first, stable order.
func (h *CommunityHandler) List(c *gin.Context) {
	communities, err := h.communities.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list communities", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load communities"})
		return
	}

	c.JSON(http.StatusOK, communities)
}

// GetByID handles GET /v1/communities/:id.
func (h *CommunityHandler) GetByID(c *gin.Context) {
	community, ok := h.loadCommunity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, community)
}

// Delete handles DELETE /v1/communities/:id. Subordinate tasks and feed
// messages are not cascaded; they become orphaned (known limitation).
func (h *CommunityHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}

	if err := h.communities.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("failed to delete community", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete community"})
		return
	}

	c.Status(http.StatusNoContent)
}

type addMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// AddMember handles POST /v1/communities/:id/members. Adding a user who
// is already a member is a no-op success — the call is idempotent.
//
// The new member list is computed from this request's snapshot of the
// community; a concurrent member edit can be clobbered (lost update,
// accepted at this scale).
func (h *CommunityHandler) AddMember(c *gin.Context) {
	community, ok := h.loadCommunity(c)
	if !ok {
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if community.HasMember(req.UserID) {
		c.JSON(http.StatusOK, community)
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), req.UserID)
	if err != nil {
		h.logger.Error("failed to resolve member", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add member"})
		return
	}
	if user == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown member: " + req.UserID})
		return
	}

	members := append(community.Members, models.Member{UserID: user.ID, Email: user.Email})
	if err := h.communities.UpdateMembers(c.Request.Context(), community.ID, members); err != nil {
		h.logger.Error("failed to add member", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add member"})
		return
	}

	community.Members = members
	c.JSON(http.StatusOK, community)
}

// RemoveMember handles DELETE /v1/communities/:id/members/:userID.
// Removing the current project lead is refused — the lead must be in the
// member set, so the lead slot has to be cleared first.
func (h *CommunityHandler) RemoveMember(c *gin.Context) {
	community, ok := h.loadCommunity(c)
	if !ok {
		return
	}

	userID := c.Param("userID")
	if community.ProjectLeadID != "" && community.ProjectLeadID == userID {
		c.JSON(http.StatusConflict, gin.H{"error": "remove the project lead before removing them as a member"})
		return
	}

	members := make([]models.Member, 0, len(community.Members))
	for _, m := range community.Members {
		if m.UserID != userID {
			members = append(members, m)
		}
	}

	if err := h.communities.UpdateMembers(c.Request.Context(), community.ID, members); err != nil {
		h.logger.Error("failed to remove member", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove member"})
		return
	}

	community.Members = members
	c.JSON(http.StatusOK, community)
}

type setLeadRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// SetLead handles POST /v1/communities/:id/lead — the promotion saga.
// The response always names which steps committed; a partial failure is
// never reported as if nothing happened.
func (h *CommunityHandler) SetLead(c *gin.Context) {
	community, ok := h.loadCommunity(c)
	if !ok {
		return
	}

	var req setLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), req.UserID)
	if err != nil {
		h.logger.Error("failed to resolve user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set lead"})
		return
	}
	if user == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown user: " + req.UserID})
		return
	}
	if !community.HasMember(user.ID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": user.Email + " is not a member of this community"})
		return
	}

	result := h.promotion.Promote(c.Request.Context(), user, community)

	status := http.StatusOK
	if !result.Succeeded() {
		h.logger.Error("promotion incomplete",
			zap.String("community_id", community.ID.String()),
			zap.String("user_id", user.ID),
			zap.Bool("lead_assigned", result.LeadAssigned),
			zap.Bool("role_promoted", result.RolePromoted),
			zap.Error(result.Err),
		)
		status = http.StatusInternalServerError
	} else if result.Announcement != nil {
		h.publisher.PublishAnnouncement(c.Request.Context(), result.Announcement)
	}

	c.JSON(status, gin.H{
		"message":           result.Message(user.Email),
		"lead_assigned":     result.LeadAssigned,
		"role_promoted":     result.RolePromoted,
		"credential_stored": result.CredentialStored,
		"announced":         result.Announced,
	})
}

// RemoveLead handles DELETE /v1/communities/:id/lead — demote the role
// (best effort), then clear the lead slot and temporary password.
func (h *CommunityHandler) RemoveLead(c *gin.Context) {
	community, ok := h.loadCommunity(c)
	if !ok {
		return
	}

	if err := h.promotion.Demote(c.Request.Context(), community); err != nil {
		h.logger.Error("failed to remove lead", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove lead"})
		return
	}

	c.Status(http.StatusNoContent)
}

// loadCommunity parses :id and fetches the community, writing the error
// response itself when it returns ok=false.
func (h *CommunityHandler) loadCommunity(c *gin.Context) (*models.Community, bool) {
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

// Claims helpers shared by the handlers that care who is calling.
func callerID(c *gin.Context) string        { return middleware.GetUserID(c) }
func callerEmail(c *gin.Context) string     { return middleware.GetEmail(c) }
func callerRole(c *gin.Context) models.Role { return middleware.GetRole(c) }
