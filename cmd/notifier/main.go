package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"quickgrocery/internal/relay"
	"quickgrocery/pkg/config"
	applog "quickgrocery/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		applog.Setup("notifier", "info", true)
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	applog.Setup("notifier", cfg.App.LogLevel, !cfg.IsProduction())

	sender := relay.NewTwilioSender(
		cfg.Relay.TwilioAccountSID,
		cfg.Relay.TwilioAuthToken,
		cfg.Relay.WhatsAppFrom,
		cfg.Relay.ShopkeeperPhone,
	)

	app := fiber.New(fiber.Config{
		AppName: "QuickGrocery Notifier",
	})
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	relay.NewHandler(sender).Register(app)

	go func() {
		log.Info().
			Str("port", cfg.Relay.Port).
			Str("shopkeeper", cfg.Relay.ShopkeeperPhone).
			Msg("Notification relay listening")
		if err := app.Listen(":" + cfg.Relay.Port); err != nil {
			log.Fatal().Err(err).Msg("Relay failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down notification relay...")
	if err := app.Shutdown(); err != nil {
		log.Fatal().Err(err).Msg("Relay forced to shutdown")
	}
}
