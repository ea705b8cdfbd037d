package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docqa/internal/bootstrap"
	"docqa/internal/store"
)

type HealthHandler struct {
	app *bootstrap.App
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Target  string `json:"target,omitempty"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := gin.H{
		"backend":       h.checkBackend(ctx),
		"session_store": h.checkStore(ctx),
	}
	allOK := deps["backend"].(dependencyStatus).OK && deps["session_store"].(dependencyStatus).OK
	if h.app.Config.Journal.Enabled {
		journal := h.checkJournal()
		deps["journal"] = journal
		allOK = allOK && journal.OK
	}

	statusCode := http.StatusOK
	if !allOK {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"app":          h.app.Config.App.Name,
		"env":          h.app.Config.App.Env,
		"uptime_sec":   int(time.Since(h.app.StartedAt).Seconds()),
		"dependencies": deps,
	})
}

func (h *HealthHandler) checkBackend(ctx context.Context) dependencyStatus {
	target := h.app.Backend.BaseURL()
	if err := h.app.Backend.Ping(ctx); err != nil {
		return dependencyStatus{OK: false, Target: target, Message: err.Error()}
	}
	return dependencyStatus{OK: true, Target: target}
}

func (h *HealthHandler) checkStore(ctx context.Context) dependencyStatus {
	pinger, ok := h.app.Store.(store.Pinger)
	if !ok {
		return dependencyStatus{OK: true}
	}
	if err := pinger.Ping(ctx); err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}

func (h *HealthHandler) checkJournal() dependencyStatus {
	if h.app.JournalPublisher == nil || !h.app.JournalPublisher.Connected() {
		return dependencyStatus{OK: false, Message: "connection closed"}
	}
	return dependencyStatus{OK: true}
}
