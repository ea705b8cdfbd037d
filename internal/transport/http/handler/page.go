package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa/internal/app"
	"docqa/internal/render"
	"docqa/internal/transcript"
)

const pendingRefreshSeconds = 2

type PageHandler struct {
	title    string
	view     *transcript.View
	sessions *app.SessionService
	intake   *app.IntakeService
	catalog  *app.CatalogService
}

func NewPageHandler(title string, view *transcript.View, sessions *app.SessionService, intake *app.IntakeService, catalog *app.CatalogService) *PageHandler {
	return &PageHandler{
		title:    title,
		view:     view,
		sessions: sessions,
		intake:   intake,
		catalog:  catalog,
	}
}

func (h *PageHandler) Index(c *gin.Context) {
	intake := h.intake.State()
	c.HTML(http.StatusOK, render.PageName(), render.PageData{
		Title:          h.title,
		Session:        h.sessions.Display(c.Request.Context()),
		Blocks:         render.Blocks(h.view.Blocks()),
		Intake:         intake,
		Catalog:        h.catalog.State(),
		Refresh:        h.view.PendingCount() > 0 || intake.Uploading,
		RefreshSeconds: pendingRefreshSeconds,
	})
}
