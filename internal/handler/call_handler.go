package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/buzz-code/event-management-nra-sub001/internal/telephony"
	"github.com/buzz-code/event-management-nra-sub001/pkg/middleware/requestid"
)

// CallHandler terminates the voice platform's webhook protocol and forwards
// each step to the telephony bridge.
type CallHandler struct {
	bridge *telephony.Bridge
	token  string
	logger *zap.Logger
}

// NewCallHandler constructs the webhook handler. token authenticates the
// platform; empty disables the check.
func NewCallHandler(bridge *telephony.Bridge, token string, logger *zap.Logger) *CallHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallHandler{bridge: bridge, token: token, logger: logger}
}

// callWebhookRequest is one platform callback. Input is a pointer so an
// empty digit string is distinguishable from a callback carrying no input.
type callWebhookRequest struct {
	CallID string  `form:"call_id" json:"call_id" binding:"required"`
	Phone  string  `form:"phone" json:"phone"`
	Called string  `form:"called" json:"called"`
	Input  *string `form:"input" json:"input"`
	Hangup bool    `form:"hangup" json:"hangup"`
}

// Webhook handles POST /ivr. The response tells the platform what to speak
// and whether to collect input or end the call.
func (h *CallHandler) Webhook(c *gin.Context) {
	if h.token != "" && c.Query("token") != h.token && c.GetHeader("X-Webhook-Token") != h.token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	var req callWebhookRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("malformed webhook",
			zap.String("request_id", requestid.Value(c)),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "call_id is required"})
		return
	}

	bridgeReq := telephony.Request{
		CallID: req.CallID,
		Phone:  req.Phone,
		Called: req.Called,
		Hangup: req.Hangup,
	}
	if req.Input != nil {
		bridgeReq.Input = *req.Input
		bridgeReq.HasInput = true
	}

	c.JSON(http.StatusOK, h.bridge.Handle(c.Request.Context(), bridgeReq))
}
