package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hivedesk/hivedesk/internal/auth"
	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/hivedesk/hivedesk/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler owns the two public endpoints: one-time admin setup and
// login. Everything else sits behind AuthMiddleware.
type AuthHandler struct {
	users     repository.UserRepository
	jwtSecret string
	logger    *zap.Logger
}

func NewAuthHandler(users repository.UserRepository, jwtSecret string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: jwtSecret, logger: logger}
}

type setupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Setup handles POST /v1/auth/setup — creates the single workspace admin.
//
// The one-admin rule is enforced by query-then-write, not a store
// constraint: two racing setups could in principle both pass the count
// check. Accepted — setup is a one-time bootstrap action, not a hot path.
func (h *AuthHandler) Setup(c *gin.Context) {
	var req setupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	admins, err := h.users.CountByRole(c.Request.Context(), models.RoleAdmin)
	if err != nil {
		h.logger.Error("failed to count admins", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "setup failed"})
		return
	}
	if admins > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "an admin already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "setup failed"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.users.Create(c.Request.Context(), uuid.NewString(), email, string(hash), models.RoleAdmin)
	if err != nil {
		h.logger.Error("failed to create admin", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "setup failed"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.Role, h.jwtSecret, 24*time.Hour)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "setup failed"})
		return
	}

	c.JSON(http.StatusCreated, authResponse{Token: token})
}

// Login handles POST /v1/auth/login.
//
// A role change (promotion, demotion) only lands in the token here, which
// is why the promotion notification tells the user to log back in.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		h.logger.Error("failed to find user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	// One generic message for both unknown email and wrong password, so
	// the endpoint doesn't leak which addresses are registered.
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.Role, h.jwtSecret, 24*time.Hour)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, authResponse{Token: token})
}
