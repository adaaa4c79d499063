package v1

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vetlink/vetlink/internal/config"
	"github.com/vetlink/vetlink/internal/domain"
	"github.com/vetlink/vetlink/internal/middleware"
	"github.com/vetlink/vetlink/pkg/auth"
	"github.com/vetlink/vetlink/pkg/metrics"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Appointments *AppointmentHandler
	Pets         *PetHandler
	Pharmacies   *PharmacyHandler
	Predictions  *PredictionHandler
	Contact      *ContactHandler
}

// NewRouter wires middleware and all versioned routes.
func NewRouter(cfg *config.Config, jwt *auth.JWTManager, collector *metrics.Collector, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.Use(middleware.Metrics(collector))
	router.Use(middleware.RateLimit(cfg.RateLimit))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := router.Group("/api/v1")

	authenticated := middleware.Authenticate(jwt)
	userOnly := middleware.RequireRole(domain.RoleUser)
	adminOnly := middleware.RequireRole(domain.RoleSuperAdmin)

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.AuthRateLimit(cfg.RateLimit))
	{
		authGroup.POST("/signup", h.Auth.Signup)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/forgot-password", h.Auth.ForgotPassword)
		authGroup.GET("/verify-reset-token", h.Auth.VerifyResetToken)
		authGroup.POST("/reset-password", h.Auth.ResetPassword)
		authGroup.POST("/change-password", authenticated, h.Auth.ChangePassword)
	}

	api.POST("/contact", h.Contact.Submit)

	profile := api.Group("/profile", authenticated)
	{
		profile.GET("", h.Users.GetProfile)
		profile.PUT("", h.Users.UpdateProfile)
	}

	admin := api.Group("/admin", authenticated, adminOnly)
	{
		admin.GET("/users", h.Users.ListUsers)
		admin.PUT("/users", h.Users.UpdateUserRole)
		admin.PUT("/users/active", h.Users.SetUserActive)
	}

	vets := api.Group("/veterinarians", authenticated, userOnly)
	{
		vets.GET("", h.Users.ListVeterinarians)
		vets.GET("/:id/availability", h.Appointments.GetAvailability)
	}

	appts := api.Group("/appointments", authenticated)
	{
		appts.POST("", userOnly, h.Appointments.Book)
		appts.GET("", h.Appointments.List)
		appts.GET("/:id", h.Appointments.Get)
		appts.PUT("/:id", h.Appointments.Update)
		appts.DELETE("/:id", h.Appointments.Cancel)
		appts.POST("/:id/payment", userOnly, h.Appointments.Pay)
	}

	pets := api.Group("/pets", authenticated)
	{
		pets.POST("", userOnly, h.Pets.Create)
		pets.GET("", h.Pets.List)
		pets.GET("/:id", h.Pets.Get)
		pets.PUT("/:id", h.Pets.Update)
		pets.PATCH("/:id", h.Pets.Update)
		pets.DELETE("/:id", h.Pets.Delete)
		pets.POST("/:id/avatar", h.Pets.SetAvatar)
		pets.GET("/:id/skin-disease", h.Pets.ListSkinScans)
		pets.POST("/:id/skin-disease", h.Pets.AddSkinScan)
		pets.GET("/:id/diet", h.Pets.DietPlan)
	}

	pharmacies := api.Group("/pharmacies", authenticated)
	{
		pharmacies.GET("", h.Pharmacies.List)
		pharmacies.POST("", h.Pharmacies.Create)
		pharmacies.POST("/match", h.Pharmacies.Match)
		pharmacies.GET("/:id", h.Pharmacies.Get)
		pharmacies.GET("/:id/inventory", h.Pharmacies.ListInventory)
		pharmacies.POST("/:id/inventory", h.Pharmacies.AddItem)
		pharmacies.PUT("/:id/inventory/:itemId", h.Pharmacies.UpdateItem)
		pharmacies.DELETE("/:id/inventory/:itemId", h.Pharmacies.DeleteItem)
		pharmacies.POST("/:id/sales", h.Pharmacies.RecordSale)
		pharmacies.GET("/:id/forecast", h.Pharmacies.Forecast)
	}

	api.POST("/disease/predict", authenticated, h.Predictions.PredictDisease)
	api.POST("/disease/multi-predict", authenticated, h.Predictions.PredictMultiDisease)
	api.GET("/disease/history", authenticated, h.Predictions.GaitHistory)
	api.POST("/limping/analyze", authenticated, h.Predictions.AnalyzeLimping)
	api.POST("/pose/detect", authenticated, h.Predictions.DetectPose)
	api.POST("/pharmacy/demand-predict", authenticated, h.Predictions.PredictDemand)

	return router
}
