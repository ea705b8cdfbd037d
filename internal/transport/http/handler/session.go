package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa/internal/app"
	"docqa/internal/transport/http/response"
)

type SessionHandler struct {
	sessions *app.SessionService
}

func NewSessionHandler(sessions *app.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Reset always switches to a new session; a failed save is only reported in
// the log.
func (h *SessionHandler) Reset(c *gin.Context) {
	if _, err := h.sessions.Reset(c.Request.Context()); err != nil {
		_ = c.Error(err)
	}
	response.Back(c, "")
}

func (h *SessionHandler) Show(c *gin.Context) {
	response.OK(c, gin.H{"session": h.sessions.Display(c.Request.Context())})
}

func (h *SessionHandler) ResetJSON(c *gin.Context) {
	_, err := h.sessions.Reset(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
	}
	c.JSON(http.StatusOK, response.APIResponse{
		Code:    response.CodeOK,
		Message: "ok",
		Data: gin.H{
			"session":   h.sessions.Display(c.Request.Context()),
			"persisted": err == nil,
		},
	})
}
