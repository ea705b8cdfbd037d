package http

import (
	"github.com/gin-gonic/gin"

	"docqa/internal/bootstrap"
	"docqa/internal/render"
	"docqa/internal/transport/http/handler"
	"docqa/internal/transport/http/middleware"
)

const maxUploadMemory = 32 << 20

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.MaxMultipartMemory = maxUploadMemory
	router.Use(gin.Recovery(), middleware.RequestLog(app.Logger))
	if app.Config.Tracing.Enabled {
		router.Use(middleware.Tracing(app.Config.Tracing.ServiceName))
	}
	router.SetHTMLTemplate(render.Templates())

	pageHandler := handler.NewPageHandler(app.Config.App.Name, app.View, app.Sessions, app.Intake, app.Catalog)
	conversationHandler := handler.NewConversationHandler(app.Exchange, app.View)
	sessionHandler := handler.NewSessionHandler(app.Sessions)
	documentHandler := handler.NewDocumentHandler(app.Intake, app.Catalog)
	healthHandler := handler.NewHealthHandler(app)

	router.GET("/", pageHandler.Index)
	router.GET("/healthz", healthHandler.Check)

	router.POST("/ask", conversationHandler.Ask)
	router.POST("/turns/:id/toggle", conversationHandler.Toggle)
	router.POST("/session/reset", sessionHandler.Reset)

	docs := router.Group("/documents")
	docs.POST("/upload", documentHandler.Upload)
	docs.POST("/refresh", documentHandler.Refresh)
	docs.POST("/:id/delete", documentHandler.Delete)

	api := router.Group("/api")
	api.GET("/transcript", conversationHandler.Transcript)
	api.POST("/ask", conversationHandler.AskJSON)
	api.GET("/documents", documentHandler.List)
	api.POST("/documents/upload", documentHandler.UploadJSON)
	api.POST("/documents/refresh", documentHandler.RefreshJSON)
	api.DELETE("/documents/:id", documentHandler.DeleteJSON)
	api.GET("/intake", documentHandler.IntakeState)
	api.GET("/session", sessionHandler.Show)
	api.POST("/session/reset", sessionHandler.ResetJSON)

	return router
}
