package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"quickgrocery/internal/handler"
	"quickgrocery/internal/middleware"
	"quickgrocery/internal/model"
	"quickgrocery/internal/notify"
	"quickgrocery/internal/service"
	"quickgrocery/internal/store"
	"quickgrocery/internal/ws"
	"quickgrocery/pkg/config"
	"quickgrocery/pkg/jwt"
	applog "quickgrocery/pkg/logger"
)

func main() {
	// 1. Config and logging
	cfg, err := config.Load()
	if err != nil {
		applog.Setup("api", "info", true)
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	applog.Setup("api", cfg.App.LogLevel, !cfg.IsProduction())

	platformFee, err := cfg.PlatformFee()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid platform fee")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Storage
	repos, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to open store")
	}
	defer closeStore()

	// 3. WebSocket hub
	wsHub := ws.NewHub()
	go wsHub.Run(ctx)

	// 4. Dependency injection
	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTL, cfg.JWT.Issuer)

	var notifier service.Notifier
	if cfg.Notifier.URL != "" {
		notifier = notify.NewClient(cfg.Notifier.URL, cfg.Notifier.Timeout)
	} else {
		log.Warn().Msg("NOTIFIER_URL not set, shopkeeper notifications disabled")
	}

	authService := service.NewAuthService(repos.Users, tokens)
	userService := service.NewUserService(repos.Users)
	invService := service.NewInventoryService(repos.Products, repos.Stats, wsHub)
	dashService := service.NewDashboardService(repos.Stats, nil)
	orderService := service.NewOrderService(repos.Checkout, repos.Orders, notifier, wsHub, service.OrderOptions{
		PlatformFee:   platformFee,
		MaxRetries:    cfg.Checkout.MaxRetries,
		NotifyTimeout: cfg.Notifier.Timeout,
		UPI:           service.UPIConfig{VPA: cfg.UPI.VPA, PayeeName: cfg.UPI.PayeeName},
	})

	if err := authService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name); err != nil {
		log.Error().Err(err).Msg("Failed to seed admin user")
	}

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	invHandler := handler.NewInventoryHandler(invService)
	orderHandler := handler.NewOrderHandler(orderService)
	dashHandler := handler.NewDashboardHandler(dashService)

	// 5. Fiber
	app := fiber.New(fiber.Config{
		AppName: "QuickGrocery API",
	})
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/login", authHandler.Login)

	requireAuth := middleware.RequireAuth(authService)

	api.Get("/categories", invHandler.GetCategories)
	api.Get("/products", invHandler.GetProducts)
	// Registered before /products/:id so "frequent" is not read as an id.
	api.Get("/products/frequent", requireAuth, invHandler.GetFrequentProducts)
	api.Get("/products/:id", invHandler.GetProduct)

	// ============ PROTECTED ROUTES ============
	auth.Get("/me", requireAuth, authHandler.Me)
	auth.Post("/change-password", requireAuth, authHandler.ChangePassword)

	protected := api.Group("", requireAuth)

	protected.Get("/profile", userHandler.GetProfile)
	protected.Put("/profile", userHandler.UpdateProfile)

	protected.Post("/orders", middleware.RequireCapability(model.CapPlaceOrder), orderHandler.PlaceOrder)
	protected.Get("/orders/mine", middleware.RequireCapability(model.CapViewOwnOrders), orderHandler.GetMyOrders)
	protected.Get("/orders", middleware.RequireCapability(model.CapManageOrders), orderHandler.GetOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Get("/orders/:id/payment-link", orderHandler.GetPaymentLink)
	protected.Patch("/orders/:id/status", middleware.RequireCapability(model.CapManageOrders), orderHandler.UpdateStatus)

	protected.Post("/products", middleware.RequireCapability(model.CapManageInventory), invHandler.CreateProduct)
	protected.Put("/products/:id", middleware.RequireCapability(model.CapManageInventory), invHandler.UpdateProduct)
	protected.Delete("/products/:id", middleware.RequireCapability(model.CapManageInventory), invHandler.DeleteProduct)

	protected.Get("/dashboard/stats", middleware.RequireCapability(model.CapViewDashboard), dashHandler.GetDashboardStats)

	// WebSocket route, admin only. The token comes in the query string.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	}, middleware.RequireAuthQuery(authService), middleware.RequireCapability(model.CapManageOrders))
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Add(c)
		defer wsHub.Remove(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 6. Graceful shutdown
	go func() {
		log.Info().Str("port", cfg.App.Port).Str("driver", cfg.Database.Driver).Msg("API listening")
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}
	log.Info().Msg("Server exited")
}
