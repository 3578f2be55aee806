package api

import (
	"net/http"

	"alcyxob/material-approval/internal/access"
	"alcyxob/material-approval/internal/metrics"
	"alcyxob/material-approval/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RouterDeps carries everything SetupRoutes needs.
type RouterDeps struct {
	AuthService     service.AuthService
	MaterialService service.MaterialService
	Metrics         *metrics.Metrics // optional
	MaxUploadBytes  int64
	Log             logrus.FieldLogger
}

// SetupRoutes registers every endpoint on router. Reviewer-only routes are
// gated with access.Reviewers; the rest admit any authenticated session.
func SetupRoutes(router *gin.Engine, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	var loginRecorder LoginRecorder
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
		loginRecorder = deps.Metrics
	}

	authHandler := NewAuthHandler(deps.AuthService, loginRecorder, log)
	materialHandler := NewMaterialHandler(deps.MaterialService, deps.MaxUploadBytes, log)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiGroup := router.Group("/api")
	apiGroup.POST("/login", authHandler.Login)

	protected := apiGroup.Group("")
	protected.Use(AuthMiddleware(deps.AuthService), RequireRoles(access.AnyAuthenticated...))
	{
		protected.POST("/logout", authHandler.Logout)
		protected.GET("/me", authHandler.Me)
		protected.GET("/stats", materialHandler.Stats)

		materials := protected.Group("/materials")
		{
			materials.GET("", materialHandler.ListMaterials)
			materials.POST("", materialHandler.UploadMaterial)
			materials.GET("/pending-count", materialHandler.PendingCount)
			materials.GET("/published", materialHandler.ListPublished)
			materials.GET("/:id", materialHandler.GetMaterial)

			review := materials.Group("")
			review.Use(RequireRoles(access.Reviewers...))
			{
				review.POST("/:id/approve", materialHandler.ApproveMaterial)
				review.POST("/:id/reject", materialHandler.RejectMaterial)
				review.POST("/:id/publish", materialHandler.PublishMaterial)
				review.PATCH("/:id/status", materialHandler.UpdateStatus)
			}
		}
	}
}
