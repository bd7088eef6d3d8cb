package api

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/hivedesk/hivedesk/internal/provision"
	"github.com/hivedesk/hivedesk/internal/repository"
	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,64}$`)

// Provisioner is the slice of the external account-provisioning
// collaborator the directory needs. *provision.Client satisfies it; tests
// substitute a fake.
type Provisioner interface {
	CreateMember(ctx context.Context, email string) (string, error)
}

// UserHandler serves the directory: the non-admin roster, member
// provisioning, and the admin's employee↔projectLead role toggle.
type UserHandler struct {
	users       repository.UserRepository
	provisioner Provisioner
	logger      *zap.Logger
}

func NewUserHandler(users repository.UserRepository, provisioner Provisioner, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, provisioner: provisioner, logger: logger}
}

// List handles GET /v1/users — all non-admin users, grouped by role,
// newest first. Fails softly: a store error yields an empty roster plus
// the error signal, and the client simply retries by reloading.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.ListNonAdmin(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load employees"})
		return
	}

	c.JSON(http.StatusOK, users)
}

type provisionRequest struct {
	Email string `json:"email" binding:"required"`
}

// Provision handles POST /v1/users — admin adds a member.
//
// Validation happens locally before any remote call; a malformed email
// never reaches the collaborator. Once the RPC succeeds the auth identity
// exists whether or not our directory insert lands, so an insert failure
// is reported as a partial failure naming what did happen.
func (h *UserHandler) Provision(c *gin.Context) {
	var req provisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please enter an email address"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please enter an email address"})
		return
	}
	if !emailPattern.MatchString(email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please enter a valid email address"})
		return
	}

	uid, err := h.provisioner.CreateMember(c.Request.Context(), email)
	if err != nil {
		// The collaborator's own message goes through verbatim; only
		// transport-level failures get the generic retryable wording.
		var remote *provision.RemoteError
		if errors.As(err, &remote) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": remote.Message})
			return
		}
		h.logger.Error("provisioner call failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to create member, please check your connection and try again"})
		return
	}

	user, err := h.users.Create(c.Request.Context(), uid, email, "", models.RoleEmployee)
	if err != nil {
		h.logger.Error("failed to insert directory row", zap.String("uid", uid), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "account created, but recording the directory entry failed — reload and retry",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":    user,
		"message": "Member account created! A welcome email has been sent to " + email + ".",
	})
}

// ToggleRole handles POST /v1/users/:id/role/toggle — the direct admin
// flip between employee and projectLead. Same SetRole the promotion
// workflow uses; no notification side effects on this path.
func (h *UserHandler) ToggleRole(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("failed to get user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update role"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if user.Role == models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "the admin role cannot be toggled"})
		return
	}

	newRole := user.Role.Toggled()
	if err := h.users.SetRole(c.Request.Context(), user.ID, newRole); err != nil {
		h.logger.Error("failed to set role", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update role"})
		return
	}

	user.Role = newRole
	c.JSON(http.StatusOK, gin.H{
		"user":    user,
		"message": user.Email + " is now a " + string(newRole) + ".",
	})
}
