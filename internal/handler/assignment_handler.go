package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/buzz-code/event-management-nra-sub001/internal/service"
)

// AssignmentHandler exposes the family-teacher assignment read side for
// coordinators.
type AssignmentHandler struct {
	assignments *service.AssignmentService
	userScope   string
	logger      *zap.Logger
}

// NewAssignmentHandler constructs the assignment handler. userScope is the
// tenant id queried when the request does not name one.
func NewAssignmentHandler(assignments *service.AssignmentService, userScope string, logger *zap.Logger) *AssignmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentHandler{assignments: assignments, userScope: userScope, logger: logger}
}

// History handles GET /assignments/history?family_key=...&year=...
func (h *AssignmentHandler) History(c *gin.Context) {
	familyKey := c.Query("family_key")
	if familyKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "family_key is required"})
		return
	}

	year := time.Now().Year()
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be numeric"})
			return
		}
		year = parsed
	}

	userID := c.Query("user_id")
	if userID == "" {
		userID = h.userScope
	}

	history, err := h.assignments.History(c.Request.Context(), userID, year, familyKey)
	if err != nil {
		h.logger.Error("assignment history failed", zap.String("family_key", familyKey), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no assignment for family and year"})
		return
	}

	c.JSON(http.StatusOK, history)
}
