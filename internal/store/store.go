// Package store wires the repositories for the configured database driver.
package store

import (
	"context"
	"fmt"

	"quickgrocery/internal/repository"
	"quickgrocery/internal/repository/mongorepo"
	"quickgrocery/pkg/config"
	"quickgrocery/pkg/database"
)

type Repositories struct {
	Checkout repository.CheckoutStore
	Products repository.ProductRepository
	Orders   repository.OrderRepository
	Users    repository.UserRepository
	Stats    repository.StatsRepository
}

// Open connects, migrates and returns the repositories plus a function that releases the connection.
func Open(ctx context.Context, cfg *config.Config) (*Repositories, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		return openMongo(ctx, cfg)
	case config.DriverPostgres, "":
		return openPostgres(cfg)
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func openPostgres(cfg *config.Config) (*Repositories, func(), error) {
	if err := database.Migrate(cfg.MigrationURL()); err != nil {
		return nil, nil, err
	}

	db, err := database.ConnectDB(cfg)
	if err != nil {
		return nil, nil, err
	}

	closer := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	return &Repositories{
		Checkout: repository.NewCheckoutStore(db, cfg.Checkout.LockTimeout),
		Products: repository.NewProductRepo(db),
		Orders:   repository.NewOrderRepo(db),
		Users:    repository.NewUserRepo(db),
		Stats:    repository.NewStatsRepo(db),
	}, closer, nil
}

func openMongo(ctx context.Context, cfg *config.Config) (*Repositories, func(), error) {
	client, db, err := database.ConnectMongo(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	closer := func() {
		_ = client.Disconnect(context.Background())
	}

	return &Repositories{
		Checkout: mongorepo.NewCheckoutStore(client, db),
		Products: mongorepo.NewProductRepo(client, db),
		Orders:   mongorepo.NewOrderRepo(db),
		Users:    mongorepo.NewUserRepo(db),
		Stats:    mongorepo.NewStatsRepo(db),
	}, closer, nil
}
