package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"pool-site-service/internal/adapters/cache"
	"pool-site-service/internal/adapters/irradiance"
	"pool-site-service/internal/adapters/notify"
	"pool-site-service/internal/adapters/repositories"
	"pool-site-service/internal/api"
	"pool-site-service/internal/config"
	"pool-site-service/internal/platform/db"
	"pool-site-service/internal/platform/obs"
	"pool-site-service/internal/ports"
	"pool-site-service/internal/services"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// storage bundles the persistence adapters for the selected database.
type storage struct {
	db    *sql.DB
	sites ports.SiteRepository
	store ports.IrradianceStore
}

// notifierSet is the configured notification sink plus its optional read
// sides and cleanup.
type notifierSet struct {
	notifier ports.Notifier
	feed     ports.NotificationFeed
	stream   ports.NotificationStream
	close    func() error
}

// main is the application composition root.
// It wires concrete adapters (SQL, Open-Meteo, notifier sink) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load(config.Get("CONFIG_FILE", "config.yaml"))
	if err != nil {
		log.Fatal(err)
	}

	st, err := openStorage(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer st.db.Close()

	base, err := irradiance.NewOpenMeteoProvider(cfg.Irradiance.BaseURL, cfg.Irradiance.Timeout)
	if err != nil {
		log.Fatal(err)
	}
	// The archive API is free but rate limited per client.
	provider := irradiance.NewRateLimitedProvider(base, cfg.Irradiance.RPS, cfg.Irradiance.Burst)

	ns, err := openNotifier(cfg.Notify)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := ns.close(); err != nil {
			log.Printf("close notifier: %v", err)
		}
	}()

	sync := services.NewSolarDataSync(st.sites, provider, st.store, ns.notifier, services.SolarSyncOptions{
		BackgroundDelay: backgroundDelay(cfg.BackgroundDelay),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := obs.RegisterMetrics(reg); err != nil {
		log.Fatal(err)
	}

	router := api.NewRouter(api.RouterDeps{
		Sites:   services.NewSiteService(st.sites, sync),
		Sync:    sync,
		Store:   st.store,
		Feed:    ns.feed,
		Stream:  ns.stream,
		Metrics: reg,
	})

	// WriteTimeout covers a cold foreground refresh against the archive API.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Irradiance.Timeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server listening addr=:%s provider=%q notifier=%s", cfg.Port, provider.Name(), cfg.Notify.Sink)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if err := sync.Shutdown(shutdownCtx); err != nil {
		log.Printf("solar sync shutdown: %v", err)
	}
	log.Println("Server stopped")
}

// A configured delay of zero means "start immediately"; the sync treats
// zero as "use the default".
func backgroundDelay(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}

// openStorage uses Postgres when DATABASE_URL is set and the local SQLite
// file otherwise. SQLite databases are initialized and seeded on startup
// for local runs; Postgres is prepared with cmd/dbtool.
func openStorage(cfg *config.Config) (*storage, error) {
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &storage{
			db:    conn,
			sites: repositories.NewSQLSiteRepository(conn),
			store: cache.NewSQLIrradianceCache(conn),
		}, nil
	}

	conn, err := db.OpenSqlite(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	sites := repositories.NewSqliteSiteRepository(conn)
	if err := initAndSeed(conn, sites, cfg.SeedPath); err != nil {
		conn.Close()
		return nil, err
	}

	return &storage{
		db:    conn,
		sites: sites,
		store: cache.NewSqliteIrradianceCache(conn),
	}, nil
}

func initAndSeed(conn *sql.DB, sites ports.SiteRepository, seedPath string) error {
	ctx := context.Background()

	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if _, err := os.Stat(seedPath); errors.Is(err, os.ErrNotExist) {
		log.Printf("No seed file found path=%s", seedPath)
		return nil
	}
	if err := repositories.SeedFromJSON(ctx, sites, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}

func openNotifier(cfg config.NotifyConfig) (*notifierSet, error) {
	switch cfg.Sink {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("open notifier: ping redis %q: %w", cfg.RedisAddr, err)
		}

		n, err := notify.NewRedisNotifier(rdb, cfg.Channel, cfg.TTL)
		if err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("open notifier: %w", err)
		}
		return &notifierSet{notifier: n, feed: n, stream: n, close: rdb.Close}, nil

	case "kafka":
		n, err := notify.NewKafkaNotifier(notify.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic), cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("open notifier: %w", err)
		}
		return &notifierSet{notifier: n, close: n.Close}, nil

	default:
		return &notifierSet{notifier: notify.LogNotifier{}, close: func() error { return nil }}, nil
	}
}
