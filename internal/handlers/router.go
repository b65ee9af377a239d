package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/studyloop/quiz-service/internal/services"
	"github.com/studyloop/quiz-service/internal/utils"
)

type HandlerManager struct {
	nodeHandler    *NodeHandler
	packHandler    *PackHandler
	sessionHandler *SessionHandler
	userHandler    *UserHandler
}

func NewHandlerManager(
	nodeService services.NodeService,
	packService services.ContentPackService,
	sessionService services.SessionService,
	importService services.ImportService,
	userService services.UserService,
	validator *utils.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		nodeHandler:    NewNodeHandler(nodeService, importService, validator, logger),
		packHandler:    NewPackHandler(packService, validator, logger),
		sessionHandler: NewSessionHandler(sessionService, validator, logger),
		userHandler:    NewUserHandler(userService, validator, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "quiz-service",
		})
	})

	v1 := router.Group("/api/v1")
	v1.Use(IdentityMiddleware())
	{
		// Knowledge node routes
		nodes := v1.Group("/nodes")
		{
			nodes.POST("", hm.nodeHandler.CreateNode)
			nodes.GET("/:id", hm.nodeHandler.GetNode)
			nodes.PUT("/:id", hm.nodeHandler.UpdateNode)
			nodes.DELETE("/:id", hm.nodeHandler.DeleteNode)
			nodes.GET("/:id/children", hm.nodeHandler.GetChildren)
			nodes.GET("/:id/path", hm.nodeHandler.GetPath)
			nodes.GET("/:id/subtree", hm.nodeHandler.GetSubtree)
		}

		// Content pack routes
		packs := v1.Group("/packs")
		{
			packs.POST("", hm.packHandler.CreatePack)
			packs.GET("", hm.packHandler.ListPacks)
			packs.GET("/:pack_id", hm.packHandler.GetPack)
			packs.POST("/:pack_id/publish", hm.packHandler.PublishPack)
			packs.POST("/:pack_id/archive", hm.packHandler.ArchivePack)
			packs.POST("/:pack_id/nodes/import", hm.nodeHandler.ImportNodes)
			packs.GET("/:pack_id/nodes/export", hm.nodeHandler.ExportNodes)
		}

		// Quiz session routes
		sessions := v1.Group("/sessions")
		{
			sessions.POST("/generate", hm.sessionHandler.GenerateSession)
			sessions.GET("", hm.sessionHandler.ListSessions)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.POST("/:id/submit", hm.sessionHandler.SubmitSession)
		}

		// Caller identity routes
		me := v1.Group("/me")
		{
			me.GET("", hm.userHandler.GetCurrentUser)
			me.PUT("", hm.userHandler.UpdateCurrentUser)
		}
	}
}

// IdentityMiddleware resolves the caller identity from the X-User-ID header.
// Authentication itself is handled upstream by the gateway; this service only
// trusts the forwarded identity.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	}
}
