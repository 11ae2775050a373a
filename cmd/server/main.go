package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/estatehub/backend/internal/auth"
	"github.com/ayush/estatehub/backend/internal/config"
	"github.com/ayush/estatehub/backend/internal/listing"
	"github.com/ayush/estatehub/backend/internal/logging"
	"github.com/ayush/estatehub/backend/internal/metrics"
	"github.com/ayush/estatehub/backend/internal/server"
	"github.com/ayush/estatehub/backend/internal/store"
	"github.com/ayush/estatehub/backend/internal/upload"
	"github.com/ayush/estatehub/backend/internal/user"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx := context.Background()
	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	mongoDB := mongoClient.Database(cfg.MongoDB)

	listings := store.NewMongoListingStore(mongoDB)
	if err := listings.EnsureIndexes(ctx); err != nil {
		log.Fatalf("mongo listing indexes: %v", err)
	}

	// ── Users: MongoDB or PostgreSQL ─────────────────────────
	var users interface {
		auth.UserStore
		user.UserStore
	}
	switch cfg.UserBackend {
	case config.BackendPostgres:
		pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("postgres connect: %v", err)
		}
		defer pgPool.Close()
		pgUsers := store.NewPostgresUserStore(pgPool)
		if err := pgUsers.Migrate(ctx); err != nil {
			log.Fatalf("postgres migrate: %v", err)
		}
		users = pgUsers
	default:
		mongoUsers := store.NewMongoUserStore(mongoDB)
		if err := mongoUsers.EnsureIndexes(ctx); err != nil {
			log.Fatalf("mongo user indexes: %v", err)
		}
		users = mongoUsers
	}

	// ── Redis ────────────────────────────────────────────────
	var cache listing.Cache
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("redis connect: %v", err)
		}
		defer rdb.Close()
		cache = store.NewSearchCache(rdb, cfg.SearchCacheTTL)
	} else {
		logger.Warn(ctx, "REDIS_ADDR not set, search cache disabled")
	}

	// ── MinIO ────────────────────────────────────────────────
	var images listing.ImageStore
	var minioStore *store.MinioStore
	if cfg.MinioEndpoint != "" {
		minioStore, err = store.NewMinioStore(
			ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL, cfg.MinioPublicURL,
		)
		if err != nil {
			log.Fatalf("minio connect: %v", err)
		}
		images = minioStore
	} else {
		logger.Warn(ctx, "MINIO_ENDPOINT not set, image upload disabled")
	}

	// ── Metrics ──────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// ── Auth ─────────────────────────────────────────────────
	hasher := auth.NewHasher(cfg.BcryptCost)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	cookies := auth.Cookies{Secure: cfg.CookieSecure, TTL: tokens.TTL()}
	authSvc := auth.NewService(users, hasher, tokens)

	// ── Handlers ─────────────────────────────────────────────
	cleanup := user.Cleanup{}
	if images != nil {
		cleanup.Images = images
	}
	if cache != nil {
		cleanup.Cache = cache
	}
	var uploadHandler *upload.Handler
	if minioStore != nil {
		uploadHandler = upload.NewHandler(minioStore, m, logger.With("component", "upload"))
	}

	router := server.NewRouter(server.Deps{
		Auth:        auth.NewHandler(authSvc, cookies, logger.With("component", "auth")),
		Users:       user.NewHandler(users, listings, hasher, cookies, cleanup, logger.With("component", "user")),
		Listings:    listing.NewHandler(listings, users, cache, images, m, logger.With("component", "listing")),
		Upload:      uploadHandler,
		Tokens:      tokens,
		Metrics:     m,
		Gatherer:    reg,
		CORSOrigins: cfg.CORSOrigins,
		RequestLog:  true,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info(ctx, "backend listening", "port", cfg.Port, "user_backend", cfg.UserBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
