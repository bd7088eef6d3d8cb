package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hivedesk/hivedesk/internal/auth"
	"github.com/hivedesk/hivedesk/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newProtectedRouter(secret string, allowed ...models.Role) *gin.Engine {
	router := gin.New()
	group := router.Group("/v1")
	group.Use(AuthMiddleware(secret))
	handlers := []gin.HandlerFunc{}
	if len(allowed) > 0 {
		handlers = append(handlers, RequireRole(allowed...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": GetUserID(c),
			"email":   GetEmail(c),
			"role":    GetRole(c),
		})
	})
	group.GET("/ping", handlers...)
	return router
}

func get(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddlewarePassesClaimsThrough(t *testing.T) {
	token, err := auth.GenerateToken("u1", "dana@example.com", models.RoleProjectLead, "secret", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	rec := get(newProtectedRouter("secret"), "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthMiddlewareRejects(t *testing.T) {
	router := newProtectedRouter("secret")

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"garbage token":  "Bearer not.a.token",
	}
	for name, header := range cases {
		if rec := get(router, header); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rec.Code)
		}
	}

	wrongSecret, _ := auth.GenerateToken("u1", "dana@example.com", models.RoleEmployee, "other", time.Hour)
	if rec := get(router, "Bearer "+wrongSecret); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret: expected 401, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	router := newProtectedRouter("secret", models.RoleAdmin)

	adminToken, _ := auth.GenerateToken("a1", "admin@example.com", models.RoleAdmin, "secret", time.Hour)
	if rec := get(router, "Bearer "+adminToken); rec.Code != http.StatusOK {
		t.Fatalf("admin should pass, got %d", rec.Code)
	}

	employeeToken, _ := auth.GenerateToken("u1", "dana@example.com", models.RoleEmployee, "secret", time.Hour)
	if rec := get(router, "Bearer "+employeeToken); rec.Code != http.StatusForbidden {
		t.Fatalf("employee should be forbidden, got %d", rec.Code)
	}
}
