package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/respiguard/backend/internal/domain/advisor"
	"github.com/respiguard/backend/internal/domain/chat"
	"github.com/respiguard/backend/internal/domain/emergency"
	apperrors "github.com/respiguard/backend/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	advisorSvc   advisor.Service
	chatSvc      chat.Service
	emergencySvc emergency.Service
	logger       *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(advisorSvc advisor.Service, chatSvc chat.Service, emergencySvc emergency.Service, logger *slog.Logger) *Handler {
	return &Handler{
		advisorSvc:   advisorSvc,
		chatSvc:      chatSvc,
		emergencySvc: emergencySvc,
		logger:       logger.With("component", "http.handler"),
	}
}

// Advisory returns the structured daily advisory for the caller's location.
func (h *Handler) Advisory(c *gin.Context) {
	var req advisor.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if claims, ok := getClaims(c); ok {
		req.UserID = claims.UserID
	}

	resp, err := h.advisorSvc.Advise(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, mapDomainError(err, "advisory_failed"))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Chat answers a follow-up question with bounded conversation memory.
func (h *Handler) Chat(c *gin.Context) {
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if claims, ok := getClaims(c); ok {
		req.UserID = claims.UserID
	}

	resp, err := h.chatSvc.Ask(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, mapDomainError(err, "chat_failed"))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SOS generates voice instructions and dispatches guardian notifications.
func (h *Handler) SOS(c *gin.Context) {
	var req emergency.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if claims, ok := getClaims(c); ok {
		req.UserID = claims.UserID
	}

	resp, err := h.emergencySvc.Trigger(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, mapDomainError(err, "sos_failed"))
		return
	}

	c.JSON(http.StatusOK, resp)
}

func mapDomainError(err error, fallbackCode string) *HTTPError {
	status := http.StatusInternalServerError
	code := fallbackCode
	switch {
	case apperrors.IsCode(err, "invalid_input"):
		status = http.StatusBadRequest
		code = "invalid_request"
	case apperrors.IsCode(err, "feed_unavailable"):
		status = http.StatusBadGateway
		code = "feed_unavailable"
	case apperrors.IsCode(err, "invalid_measurement"):
		status = http.StatusBadGateway
		code = "feed_unavailable"
	case apperrors.IsCode(err, "retrieval_error"):
		status = http.StatusBadGateway
		code = "retrieval_error"
	case apperrors.IsCode(err, "llm_error"):
		status = http.StatusBadGateway
		code = "llm_error"
	}
	return NewHTTPError(status, code, errMessage(err), err)
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
