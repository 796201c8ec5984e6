// README: HTTP route registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"voyage/internal/http/handlers"
	"voyage/internal/http/middleware"
)

func (s *Server) register(r *gin.Engine) {
	r.Use(
		middleware.Recovery(s.logger),
		middleware.Logging(s.logger),
		middleware.Metrics(s.metrics),
		middleware.CORS(s.corsOrigin),
	)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api")
	api.GET("/traveler-types", handlers.TravelerTypes)
	api.GET("/destinations", handlers.Destinations)

	// a nil *aiusage.Service must not become a non-nil interface
	var quota handlers.TokenSpender
	if s.usage != nil {
		quota = s.usage
	}
	aiHandler := handlers.NewAIHandler(s.planning, quota, s.logger)
	aiGroup := api.Group("/ai", middleware.OptionalAuth(s.verifier))
	aiGroup.POST("/destinations", aiHandler.Destinations)
	aiGroup.POST("/trip-planning", aiHandler.TripPlan)
	aiGroup.POST("/trip-planning/manifest", aiHandler.Manifest)
	aiGroup.POST("/trip-planning/chunked", aiHandler.Chunked)
	aiGroup.POST("/trip-planning/stream", aiHandler.Stream)

	imageHandler := handlers.NewImageHandler(s.images, s.logger)
	api.GET("/images/destination", imageHandler.Destination)
	r.GET(PlacePhotoPath, imageHandler.PlacePhoto)

	plansHandler := handlers.NewPlansHandler(s.plans, s.logger)
	api.GET("/shared/:shareId", plansHandler.GetShared)

	usageHandler := handlers.NewUsageHandler(s.usage, s.logger)
	user := api.Group("/user", middleware.Auth(s.verifier))
	user.GET("/plans/list", plansHandler.ListPlans)
	user.POST("/plans", plansHandler.CreatePlan)
	user.GET("/plans/:id", plansHandler.GetPlan)
	user.PUT("/plans/:id", plansHandler.UpdatePlan)
	user.DELETE("/plans/:id", plansHandler.DeletePlan)
	user.POST("/plans/:id/share", plansHandler.SharePlan)
	user.GET("/destinations", plansHandler.ListDestinations)
	user.POST("/destinations", plansHandler.SaveDestination)
	user.DELETE("/destinations/:id", plansHandler.DeleteDestination)
	user.GET("/usage", usageHandler.Report)
}
