package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/hivedesk/hivedesk/internal/provision"
	"go.uber.org/zap"
)

type fakeProvisioner struct {
	uid  string
	err  error
	seen []string
}

func (p *fakeProvisioner) CreateMember(_ context.Context, email string) (string, error) {
	p.seen = append(p.seen, email)
	if p.err != nil {
		return "", p.err
	}
	return p.uid, nil
}

func newUserRouter(users *memUserRepo, provisioner Provisioner) *gin.Engine {
	h := NewUserHandler(users, provisioner, zap.NewNop())
	router := gin.New()
	router.Use(asClaims("admin1", "admin@example.com", models.RoleAdmin))
	router.GET("/v1/users", h.List)
	router.POST("/v1/users", h.Provision)
	router.POST("/v1/users/:id/role/toggle", h.ToggleRole)
	return router
}

func TestProvisionHappyPath(t *testing.T) {
	users := newMemUserRepo()
	prov := &fakeProvisioner{uid: "fb-uid-123"}
	router := newUserRouter(users, prov)

	rec := doJSON(t, router, http.MethodPost, "/v1/users", gin.H{"email": " Dana@Example.COM "})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Email is normalized before it ever reaches the collaborator.
	if len(prov.seen) != 1 || prov.seen[0] != "dana@example.com" {
		t.Fatalf("provisioner saw %v", prov.seen)
	}

	u := users.users["fb-uid-123"]
	if u == nil || u.Email != "dana@example.com" || u.Role != models.RoleEmployee {
		t.Fatalf("directory row wrong: %+v", u)
	}
}

func TestProvisionValidatesLocallyFirst(t *testing.T) {
	prov := &fakeProvisioner{uid: "x"}
	router := newUserRouter(newMemUserRepo(), prov)

	for _, email := range []string{"", "   ", "not-an-email", "a@b"} {
		rec := doJSON(t, router, http.MethodPost, "/v1/users", gin.H{"email": email})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("email %q: expected 400, got %d", email, rec.Code)
		}
	}
	if len(prov.seen) != 0 {
		t.Fatalf("no malformed email may reach the collaborator: %v", prov.seen)
	}
}

func TestProvisionPassesRemoteMessageThrough(t *testing.T) {
	prov := &fakeProvisioner{err: &provision.RemoteError{Message: "That email is already registered."}}
	router := newUserRouter(newMemUserRepo(), prov)

	rec := doJSON(t, router, http.MethodPost, "/v1/users", gin.H{"email": "dana@example.com"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &resp)
	if resp.Error != "That email is already registered." {
		t.Fatalf("collaborator message must pass through verbatim, got %q", resp.Error)
	}
}

func TestProvisionTransportFailureReadsRetryable(t *testing.T) {
	prov := &fakeProvisioner{err: errors.New("dial tcp: connection refused")}
	router := newUserRouter(newMemUserRepo(), prov)

	rec := doJSON(t, router, http.MethodPost, "/v1/users", gin.H{"email": "dana@example.com"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &resp)
	if !strings.Contains(resp.Error, "check your connection") {
		t.Fatalf("transport failure must read as retryable, got %q", resp.Error)
	}
	if strings.Contains(resp.Error, "dial tcp") {
		t.Fatalf("raw transport error must not leak: %q", resp.Error)
	}
}

func TestToggleRoleFlipsBetweenEmployeeAndLead(t *testing.T) {
	users := newMemUserRepo(&models.User{ID: "u1", Email: "dana@example.com", Role: models.RoleEmployee})
	router := newUserRouter(users, &fakeProvisioner{})

	rec := doJSON(t, router, http.MethodPost, "/v1/users/u1/role/toggle", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if users.users["u1"].Role != models.RoleProjectLead {
		t.Fatalf("expected projectLead, got %q", users.users["u1"].Role)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/users/u1/role/toggle", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if users.users["u1"].Role != models.RoleEmployee {
		t.Fatalf("expected employee after second toggle, got %q", users.users["u1"].Role)
	}

	var resp struct {
		Message string `json:"message"`
	}
	decodeBody(t, rec, &resp)
	if !strings.Contains(resp.Message, "dana@example.com is now a employee") {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestToggleRoleRefusesAdmin(t *testing.T) {
	users := newMemUserRepo(&models.User{ID: "a1", Email: "admin@example.com", Role: models.RoleAdmin})
	router := newUserRouter(users, &fakeProvisioner{})

	rec := doJSON(t, router, http.MethodPost, "/v1/users/a1/role/toggle", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if users.users["a1"].Role != models.RoleAdmin {
		t.Fatalf("admin role must be untouched")
	}
}

func TestListExcludesAdmins(t *testing.T) {
	users := newMemUserRepo(
		&models.User{ID: "a1", Email: "admin@example.com", Role: models.RoleAdmin},
		&models.User{ID: "u1", Email: "dana@example.com", Role: models.RoleEmployee},
	)
	router := newUserRouter(users, &fakeProvisioner{})

	rec := doJSON(t, router, http.MethodGet, "/v1/users", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var roster []models.User
	decodeBody(t, rec, &roster)
	if len(roster) != 1 || roster[0].ID != "u1" {
		t.Fatalf("roster must exclude admins: %+v", roster)
	}
}
