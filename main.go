package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/fahad90fa/oneverse-sub000/config"
	"github.com/fahad90fa/oneverse-sub000/database"
	"github.com/fahad90fa/oneverse-sub000/hub"
	"github.com/fahad90fa/oneverse-sub000/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("c", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}

	log := newLogger(cfg)

	engine, err := database.InitDB("mysql", database.MysqlDSN(
		cfg.Mysql.IP, cfg.Mysql.Port, cfg.Mysql.User, cfg.Mysql.Password, cfg.Mysql.DbName))
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer engine.Close()
	store := database.NewSQLStore(engine)

	var presence database.PresenceCache
	switch cfg.Server.Mode {
	case config.ModeCluster:
		client := database.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.Db)
		defer client.Close()
		cache := database.NewRedisPresenceCache(client)
		defer cache.Close()
		presence = cache
	default:
		presence = database.NewMemPresenceCache()
	}

	blobs, cleanup, err := newBlobStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open blob storage")
	}
	defer cleanup()

	chatHub := hub.NewHub(hub.Options{
		Store:     store,
		Presence:  presence,
		Blobs:     blobs,
		JwtSecret: cfg.Server.JwtSecret,
		Origin:    cfg.Server.Origin,
		Peer:      cfg.Peer,
		Logger:    log,
	})

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	chatHub.Routes(r)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if disk, ok := blobs.(*storage.Disk); ok && strings.HasPrefix(cfg.Storage.BaseURL, "/") {
		prefix := strings.TrimSuffix(cfg.Storage.BaseURL, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix+"/",
			http.FileServer(http.Dir(disk.Dir()))))
	}

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("listen", cfg.Server.Listen).Str("mode", cfg.Server.Mode).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	chatHub.Close()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("server stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDevelopment() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger().Level(zerolog.DebugLevel)
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

// newBlobStore picks the configured backend. The returned cleanup is a
// no-op for disk storage.
func newBlobStore(cfg *config.Config) (storage.BlobStore, func(), error) {
	switch cfg.Storage.Backend {
	case config.StorageGCS:
		gcs, err := storage.NewGCS(context.Background(), cfg.Storage.Bucket, cfg.Storage.Credentials)
		if err != nil {
			return nil, nil, err
		}
		return gcs, func() { gcs.Close() }, nil
	default:
		disk, err := storage.NewDisk(cfg.Storage.Dir, cfg.Storage.BaseURL)
		if err != nil {
			return nil, nil, err
		}
		return disk, func() {}, nil
	}
}
