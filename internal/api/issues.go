package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hivedesk/hivedesk/internal/caseid"
	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/hivedesk/hivedesk/internal/repository"
	"go.uber.org/zap"
)

// IssueHandler serves the anonymous issue ledger.
//
// Anonymity is structural: Submit never reads the caller's claims, so no
// code path exists that could associate a report with its author. Lookup
// and Submit are open to any authenticated user; List and Respond are
// admin-only at the route table.
type IssueHandler struct {
	issues repository.IssueRepository
	logger *zap.Logger
}

func NewIssueHandler(issues repository.IssueRepository, logger *zap.Logger) *IssueHandler {
	return &IssueHandler{issues: issues, logger: logger}
}

type submitIssueRequest struct {
	Category    string `json:"category" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// Submit handles POST /v1/issues. The generated case ID is the report's
// only handle — the response is the one chance the submitter has to
// record it.
func (h *IssueHandler) Submit(c *gin.Context) {
	var req submitIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := models.IssueCategory(req.Category)
	if !category.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown issue category"})
		return
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and description are required"})
		return
	}

	id, err := caseid.NewCaseID()
	if err != nil {
		h.logger.Error("failed to generate case id", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit issue"})
		return
	}

	issue, err := h.issues.Create(c.Request.Context(), models.IssueReport{
		ID:          id,
		Category:    category,
		Title:       title,
		Description: description,
		Status:      models.IssueOpen,
	})
	if err != nil {
		h.logger.Error("failed to insert issue", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit issue"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"case_id": issue.ID,
		"message": "Issue submitted. Save your Case ID to check the status later: " + issue.ID,
	})
}

// Lookup handles GET /v1/issues/:caseID. Not-found and store failure get
// distinct messages — "no such case" must never read as "try again".
func (h *IssueHandler) Lookup(c *gin.Context) {
	id := caseid.Normalize(c.Param("caseID"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please enter a Case ID"})
		return
	}

	issue, err := h.issues.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to look up issue", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lookup failed. Please check your connection."})
		return
	}
	if issue == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "No issue found with Case ID \"" + id + "\". Please check and try again.",
		})
		return
	}

	c.JSON(http.StatusOK, issue)
}

// List handles GET /v1/issues — the admin review queue, newest first.
func (h *IssueHandler) List(c *gin.Context) {
	issues, err := h.issues.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list issues", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load issues"})
		return
	}

	c.JSON(http.StatusOK, issues)
}

type respondRequest struct {
	Response string `json:"response" binding:"required"`
	Status   string `json:"status" binding:"required"`
}

// Respond handles POST /v1/issues/:caseID/response — admin writes the
// response and moves the status. Last write wins; a second response
// replaces the first.
func (h *IssueHandler) Respond(c *gin.Context) {
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := models.IssueStatus(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be open, inReview or resolved"})
		return
	}

	id := caseid.Normalize(c.Param("caseID"))
	found, err := h.issues.Respond(c.Request.Context(), id, strings.TrimSpace(req.Response), status)
	if err != nil {
		h.logger.Error("failed to respond to issue", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save response"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "issue not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Response saved."})
}
