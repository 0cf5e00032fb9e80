package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/lcensies/task-trackers-synchronizer/internal/crud"
	"github.com/lcensies/task-trackers-synchronizer/internal/rule"
	"github.com/lcensies/task-trackers-synchronizer/internal/ws"
)

type RulesHandler struct {
	svc *crud.Service
	hub *ws.Hub
	log zerolog.Logger
}

func NewRulesHandler(svc *crud.Service, hub *ws.Hub, log zerolog.Logger) *RulesHandler {
	return &RulesHandler{svc: svc, hub: hub, log: log}
}

// List godoc
// @Summary List synchronization rules
// @Tags    rules
// @Produce json
// @Success 200 {array} rule.Rule
// @Router  /api/rule_list [get]
func (h *RulesHandler) List(c *gin.Context) {
	rules, err := h.svc.GetRules(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list rules")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "list failed"})
		return
	}
	c.JSON(http.StatusOK, rules)
}

// Add godoc
// @Summary Add a synchronization rule
// @Tags    rules
// @Accept  json
// @Produce json
// @Param   body body rule.Rule true "rule"
// @Success 200 {object} rule.Rule
// @Failure 409 {object} map[string]any
// @Failure 422 {object} map[string]string
// @Router  /api/add_rule [post]
func (h *RulesHandler) Add(c *gin.Context) {
	var in rule.Rule
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	in.ID = ""

	r, err := h.svc.AddRule(c.Request.Context(), in)
	switch {
	case errors.Is(err, crud.ErrRuleExists):
		c.JSON(http.StatusConflict, gin.H{"detail": "rule already exists", "rule": r})
		return
	case errors.Is(err, rule.ErrInvalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	case err != nil:
		h.log.Error().Err(err).Msg("add rule")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "insert failed"})
		return
	}
	c.JSON(http.StatusOK, r)

	h.publish(ws.EventRuleAdded, r)
}

// Remove godoc
// @Summary Remove synchronization rules
// @Description Removes the rules mapping source to dest. Without project_id every project's rule goes.
// @Tags    rules
// @Accept  json
// @Produce json
// @Param   body body rule.Rule true "rule"
// @Success 200 {object} map[string]int64
// @Failure 404 {object} map[string]string
// @Router  /api/remove_rule [delete]
func (h *RulesHandler) Remove(c *gin.Context) {
	var in rule.Rule
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	n, err := h.svc.RemoveRule(c.Request.Context(), in)
	switch {
	case errors.Is(err, crud.ErrRuleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "rule not found"})
		return
	case errors.Is(err, rule.ErrInvalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	case err != nil:
		h.log.Error().Err(err).Msg("remove rule")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})

	h.publish(ws.EventRuleRemoved, in.Normalize())
}

func (h *RulesHandler) publish(event string, r rule.Rule) {
	if h.hub == nil {
		return
	}
	if err := h.hub.Publish(ws.TopicRules, ws.Event{Type: event, Data: r}); err != nil {
		h.log.Warn().Err(err).Str("event", event).Msg("publish")
	}
}
