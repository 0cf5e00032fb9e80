package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/lcensies/task-trackers-synchronizer/internal/crud"
)

type IssuesHandler struct {
	svc *crud.Service
	log zerolog.Logger
}

func NewIssuesHandler(svc *crud.Service, log zerolog.Logger) *IssuesHandler {
	return &IssuesHandler{svc: svc, log: log}
}

// GET /api/issues
func (h *IssuesHandler) List(c *gin.Context) {
	issues, err := h.svc.GetIssues(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list issues")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "list failed"})
		return
	}
	c.JSON(http.StatusOK, issues)
}

// GET /api/issues/:issue_id
func (h *IssuesHandler) Get(c *gin.Context) {
	doc, err := h.svc.GetIssue(c.Request.Context(), c.Param("issue_id"))
	if errors.Is(err, crud.ErrIssueNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "issue not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("get issue")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, doc)
}
