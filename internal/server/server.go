package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"sushi-samurai/internal/auth"
	"sushi-samurai/internal/collection"
	"sushi-samurai/internal/config"
	"sushi-samurai/internal/database"
	"sushi-samurai/internal/media"
	custommiddleware "sushi-samurai/internal/middleware"
	"sushi-samurai/internal/query"
	"sushi-samurai/internal/state"
	"sushi-samurai/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, dbService database.Service) *Server {
	db := dbService.DB()
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))

	redisClient := newRedisClient(cfg, logger)
	if redisClient != nil {
		router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: 100,
			Window:            time.Minute,
			KeyPrefix:         "ratelimit",
		}, logger))
	}

	// Health check endpoint
	router.Get("/health", healthHandler(dbService))

	// Table bindings and the query cache
	collections := collection.New(db)
	cache := query.NewCache()

	// Auth stack
	authService := auth.NewService(
		auth.NewCredentialRepository(db),
		auth.NewSessionRepository(db),
		collections.Users,
		cfg.JWT.Secret,
		logger,
	)

	// Query clients
	products := query.NewProducts(collections.Products, cache)
	categories := query.NewCategories(collections.Categories, cache)
	orders := query.NewOrders(collections.Orders, cache)

	// Carts
	carts := state.NewCartManager(cartPersisterFactory(cfg, redisClient, logger), logger)

	// Media
	objects := media.NewFSStore(cfg.Storage.Root, cfg.Storage.BaseURL)
	mediaService := media.NewService(objects, collections.Media, logger)

	// Route guards
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)
	staffMiddleware := custommiddleware.RequireStaff(logger)

	// Register routes
	transport.NewAuthHandler(authService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewCatalogHandler(products, categories, logger).RegisterRoutes(router, authMiddleware, adminMiddleware)
	transport.NewOrderHandler(orders, collections.OrderItems, logger).RegisterRoutes(router, authMiddleware, staffMiddleware)
	transport.NewCartHandler(carts, products, logger).RegisterRoutes(router, authMiddleware)
	transport.NewMediaHandler(mediaService, logger).RegisterRoutes(router, authMiddleware, staffMiddleware)

	// Serve uploaded objects
	router.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.Storage.Root))))

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     dbService,
		redis:  redisClient,
	}

	return server
}

// newRedisClient connects to Redis, or returns nil when Redis is
// unreachable. Rate limiting and redis-backed carts degrade gracefully.
func newRedisClient(cfg *config.Config, logger *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, rate limiting disabled", zap.Error(err))
		client.Close()
		return nil
	}
	return client
}

// cartPersisterFactory picks the cart backend. The redis backend falls back
// to files when no Redis connection came up.
func cartPersisterFactory(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) state.PersisterFactory {
	if cfg.Cart.Backend == "redis" && redisClient != nil {
		return func(key string) state.CartPersister {
			return state.NewRedisCartPersister(redisClient, key)
		}
	}
	if cfg.Cart.Backend == "redis" {
		logger.Warn("Redis cart backend requested but Redis is unavailable, using files")
	}
	return func(key string) state.CartPersister {
		return state.NewFileCartPersister(cfg.Cart.Dir, key)
	}
}

// healthHandler reports database health; a down database yields 503.
func healthHandler(dbService database.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := dbService.Health()

		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(health)
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
