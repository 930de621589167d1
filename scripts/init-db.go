package main

import (
	"context"
	"flag"

	log "github.com/sirupsen/logrus"

	"restaurant_pos/internal/config"
	"restaurant_pos/internal/database"
	"restaurant_pos/internal/logging"
	"restaurant_pos/internal/migrations"
)

func main() {
	reset := flag.Bool("reset", false, "drop every table before migrating")
	flag.Parse()

	cfg := config.Load()
	if err := logging.Setup(cfg); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	log.Info("Initializing database...")
	db, err := database.Initialize(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *reset {
		log.Warn("Dropping existing tables...")
		if err := db.Migrator().DropTable(database.AllModels()...); err != nil {
			log.WithError(err).Warn("Error dropping tables")
		}
	}

	err = migrations.RunMigrations(context.Background(), db, migrations.Options{
		AdminUsername:     cfg.AdminUsername,
		AdminPassword:     cfg.AdminPassword,
		LowStockThreshold: cfg.LowStockThreshold,
	})
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Info("Database initialization completed successfully!")
}
