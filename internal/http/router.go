// Package http wires the gin engine: middleware chain and route table.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jackson0tr/lerko-backend/internal/config"
	"github.com/jackson0tr/lerko-backend/internal/domain"
	"github.com/jackson0tr/lerko-backend/internal/http/handler"
	"github.com/jackson0tr/lerko-backend/internal/http/middleware"
)

// NewRouter wires gin routes and middleware.
func NewRouter(
	cfg *config.Config,
	gate *middleware.Gate,
	rateLimiter *middleware.RateLimiter,
	authHandler *handler.AuthHandler,
	courseHandler *handler.CourseHandler,
	orderHandler *handler.OrderHandler,
	notificationHandler *handler.NotificationHandler,
	layoutHandler *handler.LayoutHandler,
	analyticsHandler *handler.AnalyticsHandler,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/register", authHandler.Register)
		api.POST("/activate", authHandler.Activate)
		api.POST("/login", authHandler.Login)
		api.POST("/social", authHandler.SocialLogin)
		api.GET("/refresh", authHandler.Refresh)
		api.POST("/password/forgot", authHandler.ForgotPassword)
		api.POST("/password/reset/:id/:token", authHandler.ResetPassword)

		api.GET("/courses", courseHandler.List)
		api.GET("/courses/:id", courseHandler.Get)
		api.GET("/search/:key", courseHandler.Search)
		api.GET("/layouts/:type", layoutHandler.Get)
		api.GET("/payments/publishable-key", orderHandler.PublishableKey)
	}

	authed := api.Group("", gate.Authenticate)
	{
		authed.GET("/logout", authHandler.Logout)
		authed.GET("/me", authHandler.Me)
		authed.PUT("/me", authHandler.UpdateProfile)
		authed.PUT("/me/password", authHandler.ChangePassword)
		authed.PUT("/me/avatar", authHandler.UpdateAvatar)

		authed.GET("/courses/:id/content", courseHandler.Content)
		authed.POST("/courses/:id/reviews", courseHandler.AddReview)
		authed.POST("/questions", courseHandler.AddQuestion)
		authed.POST("/questions/reply", courseHandler.AddAnswer)
		authed.POST("/video-otp", courseHandler.VideoOTP)

		authed.POST("/orders", orderHandler.Place)
		authed.POST("/payments/intent", orderHandler.CreateIntent)
	}

	admin := api.Group("/admin", gate.Authenticate, gate.RequireRole(domain.RoleAdmin))
	{
		admin.GET("/users", authHandler.ListUsers)
		admin.PUT("/users/role", authHandler.UpdateRole)
		admin.DELETE("/users/:id", authHandler.DeleteUser)

		admin.GET("/courses", courseHandler.ListAdmin)
		admin.POST("/courses", courseHandler.Create)
		admin.PUT("/courses/:id", courseHandler.Update)
		admin.DELETE("/courses/:id", courseHandler.Delete)
		admin.POST("/reviews/reply", courseHandler.AddReviewReply)

		admin.GET("/orders", orderHandler.List)

		admin.GET("/notifications", notificationHandler.List)
		admin.PUT("/notifications/:id", notificationHandler.MarkRead)

		admin.POST("/layouts", layoutHandler.Create)
		admin.PUT("/layouts", layoutHandler.Update)

		admin.GET("/analytics/users", analyticsHandler.Users)
		admin.GET("/analytics/courses", analyticsHandler.Courses)
		admin.GET("/analytics/orders", analyticsHandler.Orders)
	}

	return r
}
