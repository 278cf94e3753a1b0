package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"pool-site-service/internal/adapters/repositories"
	"pool-site-service/internal/config"
	"pool-site-service/internal/platform/db"
	"pool-site-service/internal/ports"
	"strings"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	seed := flag.Bool("seed", true, "seed sites from SEED_PATH after creating the schema")
	flag.Parse()

	cfg, err := config.Load(config.Get("CONFIG_FILE", "config.yaml"))
	if err != nil {
		log.Fatal(err)
	}

	var (
		conn  *sql.DB
		sites ports.SiteRepository
	)
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		conn, err = db.Open(cfg.DatabaseURL)
		if err == nil {
			sites = repositories.NewSQLSiteRepository(conn)
		}
	} else {
		log.Printf("DATABASE_URL not set, using sqlite path=%s", cfg.DBPath)
		conn, err = db.OpenSqlite(cfg.DBPath)
		if err == nil {
			sites = repositories.NewSqliteSiteRepository(conn)
		}
	}
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	initAndSeed(conn, sites, cfg.SeedPath, *seed)
}

func initAndSeed(conn *sql.DB, sites ports.SiteRepository, seedPath string, seed bool) {
	ctx := context.Background()

	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	if !seed {
		return
	}

	log.Printf("Seeding database from %s...", seedPath)
	if err := repositories.SeedFromJSON(ctx, sites, seedPath); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("Seeding complete.")
}
