package main

import (
	"context"
	"flag"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"quickgrocery/internal/service"
	"quickgrocery/internal/store"
	"quickgrocery/pkg/config"
	applog "quickgrocery/pkg/logger"
)

func main() {
	applog.Setup("reset-password", "info", true)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	email := flag.String("email", cfg.Admin.Email, "account to reset")
	password := flag.String("password", "", "new password (min 6 characters)")
	flag.Parse()

	if len(*password) < 6 {
		log.Fatal().Msg("-password must be at least 6 characters")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repos, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer closeStore()

	addr := service.NormalizeEmail(*email)
	user, err := repos.Users.FindByEmail(ctx, addr)
	if err != nil {
		log.Fatal().Err(err).Str("email", addr).Msg("User not found")
	}

	if err := user.SetPassword(*password); err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	// Rotating the version logs out every existing session.
	if err := repos.Users.UpdateCredentials(ctx, user.ID, user.Password, uuid.NewString()); err != nil {
		log.Fatal().Err(err).Msg("Failed to update password")
	}

	log.Info().Str("email", user.Email).Msg("Password reset, existing sessions revoked")
}
