package main

import (
	"context"
	"time"

	mongoMigration "roombook/internal/migrations/mongo"
	sqlMigration "roombook/internal/migrations/sql"
	"roombook/pkg/config"
)

const JobName = "migrate"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetStore()
	defer cfg.GracefulShutdown()
	cfg.Log.Info("Starting migration job", "store_driver", cfg.StoreDriver)

	var err error
	if cfg.UsesPostgres() {
		err = sqlMigration.RunMigration(ctx, cfg.Client.SQL, cfg.Log)
	} else {
		err = mongoMigration.RunMigration(ctx, cfg.Client.Mongo.Database(cfg.MongoDatabaseName), cfg.Log)
	}
	if err != nil {
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Migration failed", "error", err)
	}

	cfg.Log.Info("Migration completed successfully")
}
