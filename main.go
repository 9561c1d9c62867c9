package main

import (
	"fmt"

	"github.com/Amm-ar/delivero-backend/configs"
	"github.com/Amm-ar/delivero-backend/controllers"
	"github.com/Amm-ar/delivero-backend/middlewares"
	"github.com/Amm-ar/delivero-backend/payment"
	"github.com/Amm-ar/delivero-backend/pkg/logger"
	"github.com/Amm-ar/delivero-backend/pkg/push"
	"github.com/Amm-ar/delivero-backend/repository"
	"github.com/Amm-ar/delivero-backend/routes"
	"github.com/Amm-ar/delivero-backend/services"
	"github.com/Amm-ar/delivero-backend/ws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := configs.LoadConfig()

	logger.Init(cfg.Env)
	defer logger.Sync()
	log := logger.L()

	// DB
	configs.ConnectionDB(cfg.DBSource)
	configs.SetupDatabase()
	configs.SeedAdmin()
	if cfg.Env == "development" {
		configs.SeedDemoData()
	}
	db := configs.DB()

	// Repositories
	orderRepo := repository.NewOrderRepository(db)
	driverRepo := repository.NewDriverRepository(db)
	restaurantRepo := repository.NewRestaurantRepository(db)
	menuRepo := repository.NewMenuRepository(db)
	userRepo := repository.NewUserRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	// Services. The event hub doubles as the coordinator's publisher,
	// so it is created first and wired in.
	var hub *ws.EventHub
	hubPublisher := services.PublisherFunc(func(topic, event string, payload any) error {
		return hub.Publish(topic, event, payload)
	})
	coord := services.NewCoordinator(hubPublisher, push.NewLogNotifier(), userRepo, driverRepo)

	orderSvc := services.NewOrderService(
		db, orderRepo, restaurantRepo, menuRepo, driverRepo,
		payment.NewMockGateway(), coord, cfg.Pricing, cfg.IsSurgeTime,
	)
	dispatchSvc := services.NewDispatchService(db, orderRepo, driverRepo, coord, cfg.DispatchRadiusKm)
	analyticsSvc := services.NewAnalyticsService(analyticsRepo, restaurantRepo, driverRepo)
	authSvc := services.NewAuthService(userRepo, driverRepo, cfg.JWTSecret, cfg.JWTTTL)

	hub = ws.NewEventHub(orderSvc, log)
	go hub.Run()

	// HTTP
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(middlewares.CORSMiddleware())

	routes.RegisterRoutes(r, cfg, routes.Controllers{
		Auth:        controllers.NewAuthController(authSvc),
		Restaurants: controllers.NewRestaurantController(restaurantRepo, menuRepo),
		Orders:      controllers.NewOrderController(orderSvc),
		Driver:      controllers.NewDriverController(dispatchSvc, analyticsSvc),
		Analytics:   controllers.NewAnalyticsController(analyticsSvc, orderSvc),
		Hub:         hub,
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Info("server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
