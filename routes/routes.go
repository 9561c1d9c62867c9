package routes

import (
	"github.com/Amm-ar/delivero-backend/configs"
	"github.com/Amm-ar/delivero-backend/controllers"
	"github.com/Amm-ar/delivero-backend/entity"
	"github.com/Amm-ar/delivero-backend/middlewares"
	"github.com/Amm-ar/delivero-backend/ws"

	"github.com/gin-gonic/gin"
)

type Controllers struct {
	Auth        *controllers.AuthController
	Restaurants *controllers.RestaurantController
	Orders      *controllers.OrderController
	Driver      *controllers.DriverController
	Analytics   *controllers.AnalyticsController
	Hub         *ws.EventHub
}

func RegisterRoutes(r *gin.Engine, cfg *configs.Config, ctrl Controllers) {
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	secret := cfg.JWTSecret

	// Auth (public)
	a := r.Group("/auth")
	{
		a.POST("/register", ctrl.Auth.Register)
		a.POST("/login", ctrl.Auth.Login)
	}

	// Auth (protected)
	aAuth := a.Group("", middlewares.AuthMiddleware(secret))
	{
		aAuth.GET("/me", ctrl.Auth.Me)
		aAuth.POST("/device", ctrl.Auth.RegisterDevice)
	}

	// Public browse
	r.GET("/restaurants", ctrl.Restaurants.List)
	r.GET("/restaurants/:id", ctrl.Restaurants.Detail)

	// Orders. Listing is role-scoped and the transition endpoints gate
	// on actor role themselves, so one group serves every party.
	o := r.Group("/orders", middlewares.AuthMiddleware(secret), middlewares.RateLimitMiddleware())
	{
		o.POST("", ctrl.Orders.Create)
		o.GET("", ctrl.Orders.List)
		o.GET("/:id", ctrl.Orders.Detail)
		o.GET("/:id/history", ctrl.Orders.History)
		o.PATCH("/:id/status", ctrl.Orders.UpdateStatus)
		o.POST("/:id/cancel", ctrl.Orders.Cancel)
	}

	// Driver workflow
	d := r.Group("/driver", middlewares.AuthMiddleware(secret, entity.RoleDriver))
	{
		d.PATCH("/availability", ctrl.Driver.SetAvailability)
		d.PATCH("/location", ctrl.Driver.UpdateLocation)
		d.GET("/candidates", ctrl.Driver.Candidates)
		d.POST("/orders/:id/accept", ctrl.Driver.Accept)
		d.GET("/current", ctrl.Driver.CurrentDelivery)
		d.GET("/earnings", ctrl.Driver.Earnings)
	}

	// Partner Restaurant (owner/admin)
	partner := r.Group("/partner/restaurants", middlewares.AuthMiddleware(secret, entity.RoleOwner, entity.RoleAdmin))
	{
		partner.GET("/:id/analytics", ctrl.Analytics.ForRestaurant)
	}

	// Admin (admin only)
	admin := r.Group("/admin", middlewares.AuthMiddleware(secret, entity.RoleAdmin))
	{
		admin.GET("/analytics", ctrl.Analytics.ForPlatform)
		admin.POST("/orders/:id/refund", ctrl.Analytics.Refund)
	}

	// WebSocket event streams
	wsGroup := r.Group("/ws", middlewares.WSAuthMiddleware(secret))
	{
		wsGroup.GET("/orders/:id", ctrl.Hub.HandleOrderSocket)
		wsGroup.GET("/me", ctrl.Hub.HandleUserSocket)
	}
}
