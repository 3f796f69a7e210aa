package main

import (
	"context"
	"delivery-quote-service/internal/adapters/cache"
	"delivery-quote-service/internal/platform/db"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// dbtool prepares the Postgres geocode cache.
//
//	dbtool            create the schema
//	dbtool -prune 720h delete entries not refreshed within the window
func main() {
	log := logrus.New()

	prune := flag.Duration("prune", 0, "delete cache entries older than this (0 disables)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	log.Info("Initializing geocode cache schema...")
	if err := cache.InitSchema(ctx, conn); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Info("Schema ready.")

	if *prune > 0 {
		n, err := cache.Prune(ctx, conn, *prune)
		if err != nil {
			log.Fatalf("prune failed: %v", err)
		}
		log.WithField("deleted", n).Info("Prune complete.")
	}
}
