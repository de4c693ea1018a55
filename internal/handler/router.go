package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/carevault/carevault/internal/middleware"
)

type RouterDeps struct {
	Auth      *AuthHandler
	Documents *DocumentHandler
	Process   *ProcessHandler
	Search    *SearchHandler
	Assistant *AssistantHandler
	Files     *FileHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/register", deps.Auth.Register)
	api.POST("/auth/login", deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/auth/password", deps.Auth.ChangePassword)

	authGroup.POST("/documents", deps.Documents.Upload)
	authGroup.GET("/documents", deps.Documents.List)
	authGroup.GET("/documents/:id", deps.Documents.Get)
	authGroup.DELETE("/documents/:id", deps.Documents.Delete)
	authGroup.POST("/documents/:id/process", deps.Process.ProcessDocument)

	authGroup.POST("/process/pending", deps.Process.ProcessPending)
	authGroup.POST("/process/mine", deps.Process.ProcessMine)

	authGroup.POST("/search", deps.Search.Search)

	authGroup.POST("/assistant/chat", deps.Assistant.Chat)
	authGroup.GET("/assistant/sessions", deps.Assistant.ListSessions)
	authGroup.GET("/assistant/sessions/:id/messages", deps.Assistant.ListMessages)

	api.GET("/files/*key", deps.Files.Get)
}
