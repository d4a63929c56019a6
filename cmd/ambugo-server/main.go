package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aliiexe/AmbuGo/internal/config"
	"github.com/aliiexe/AmbuGo/internal/domain/ambulance"
	"github.com/aliiexe/AmbuGo/internal/domain/hospital"
	"github.com/aliiexe/AmbuGo/internal/domain/patient"
	"github.com/aliiexe/AmbuGo/internal/domain/recommendation"
	"github.com/aliiexe/AmbuGo/internal/domain/registration"
	"github.com/aliiexe/AmbuGo/internal/platform/ai"
	"github.com/aliiexe/AmbuGo/internal/platform/auth"
	"github.com/aliiexe/AmbuGo/internal/platform/db"
	"github.com/aliiexe/AmbuGo/internal/platform/messaging"
	"github.com/aliiexe/AmbuGo/internal/platform/middleware"
	"github.com/aliiexe/AmbuGo/internal/platform/websocket"
	"github.com/aliiexe/AmbuGo/internal/traffic"
	"github.com/aliiexe/AmbuGo/migrations"
)

const maxBodySize = "1M"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ambugo-server",
		Short: "Ambulance and hospital coordination API",
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(indexCmd())
	return rootCmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			return withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
				count, err := db.NewMigrator(pool, migrationSource(dir)).Up(ctx, schema)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Printf("Applied %d migration(s) to schema %s.\n", count, schema)
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			return withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
				statuses, err := db.NewMigrator(pool, migrationSource(dir)).Status(ctx, schema)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				fmt.Printf("Migration status for schema: %s\n", schema)
				fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
				for _, s := range statuses {
					status, appliedAt := "pending", ""
					if s.Applied {
						status = "applied"
						if s.AppliedAt != nil {
							appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
						}
					}
					fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
				}
				return nil
			})
		},
	}

	for _, c := range []*cobra.Command{upCmd, statusCmd} {
		c.Flags().String("schema", db.DefaultSchema, "Target schema for migrations")
		c.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
		cmd.AddCommand(c)
	}
	return cmd
}

func indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the Elasticsearch hospital index",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Copy every hospital from PostgreSQL into the geo index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.ElasticsearchURL == "" {
				return fmt.Errorf("ELASTICSEARCH_URL is required for index sync")
			}
			return withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
				repo := hospital.NewHospitalRepoPG(pool)
				index, err := newESIndex(cfg, repo)
				if err != nil {
					return err
				}
				if err := index.EnsureIndex(ctx); err != nil {
					return err
				}
				hospitals, err := hospital.NewService(repo, nil, nil).ListAll(ctx)
				if err != nil {
					return fmt.Errorf("list hospitals: %w", err)
				}
				n, err := index.Sync(ctx, hospitals)
				if err != nil {
					return err
				}
				fmt.Printf("Indexed %d hospital(s) into %s.\n", n, cfg.ElasticsearchIndex)
				return nil
			})
		},
	})
	return cmd
}

func withPool(fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, pool)
}

// migrationSource prefers an on-disk directory when one is given.
func migrationSource(dir string) fs.FS {
	if dir != "" {
		return os.DirFS(dir)
	}
	return migrations.FS
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func newESIndex(cfg *config.Config, hospitals hospital.HospitalRepository) (*hospital.ESIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{cfg.ElasticsearchURL}})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return hospital.NewESIndex(client, cfg.ElasticsearchIndex, hospitals), nil
}

// newTrafficSource returns nil when no API key is configured, which the
// estimator treats as permanently degraded.
func newTrafficSource(cfg *config.Config, rdb *redis.Client, logger zerolog.Logger) traffic.Source {
	if cfg.TrafficAPIKey == "" {
		return nil
	}
	var src traffic.Source = traffic.NewTomTomClient(cfg.TrafficAPIKey, cfg.TrafficAPIURL, nil)
	if rdb != nil {
		src = traffic.NewRedisCache(src, rdb, cfg.TrafficCacheTTL, logger)
	}
	return src
}

// newScoring picks the ranking authority and optional narrator.
func newScoring(cfg *config.Config, logger zerolog.Logger) (recommendation.Authority, recommendation.Narrator, error) {
	var model ai.StructuredModel
	if cfg.ScoringAuthority == "llm" || cfg.Narrator == "llm" {
		m, err := ai.NewOpenAIModel(ai.ModelConfig{
			APIKey:    cfg.LLMAPIKey,
			Endpoint:  cfg.LLMEndpoint,
			ModelName: cfg.LLMModel,
		})
		if err != nil {
			return nil, nil, err
		}
		model = m
	}

	var authority recommendation.Authority = recommendation.Rules{}
	if cfg.ScoringAuthority == "llm" {
		authority = recommendation.NewLLMAuthority(model, cfg.ScoringTimeout, logger)
	}
	var narrator recommendation.Narrator
	if cfg.Narrator == "llm" {
		narrator = recommendation.NewLLMNarrator(model, cfg.ScoringTimeout)
	}
	return authority, narrator, nil
}

func authMiddleware(cfg *config.Config) echo.MiddlewareFunc {
	jwtCfg := auth.JWTConfig{
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
		JWKSURL:  cfg.AuthJWKSURL,
		Skipper:  auth.AuthSkipper,
	}
	if cfg.AuthSigningKey != "" {
		jwtCfg.SigningKey = []byte(cfg.AuthSigningKey)
	}
	if cfg.ResolvedAuthMode() == "development" {
		var validate echo.MiddlewareFunc
		if cfg.AuthIssuer != "" || cfg.AuthSigningKey != "" {
			validate = auth.JWTMiddleware(jwtCfg)
		}
		return auth.DevAuthMiddleware(validate)
	}
	return auth.JWTMiddleware(jwtCfg)
}

type routeRegistrar interface {
	RegisterRoutes(api *echo.Group)
}

// mountAPI registers /api/v1. CRUD handlers share one pooled connection per
// request through connScope. Fan-out handlers draw connections from the pool
// per query and must not hold one for the whole request, or concurrent
// requests can exhaust the pool while waiting on themselves.
func mountAPI(e *echo.Echo, rateLimit, connScope echo.MiddlewareFunc, fanOut, scoped []routeRegistrar) {
	apiV1 := e.Group("/api/v1", rateLimit)
	for _, r := range fanOut {
		r.RegisterRoutes(apiV1)
	}
	crud := apiV1.Group("", connScope)
	for _, r := range scoped {
		r.RegisterRoutes(crud)
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}

	var bus messaging.Publisher = messaging.Nop{}
	if cfg.NATSURL != "" {
		nc, err := messaging.NewClient(messaging.DefaultConfig(cfg.NATSURL), logger)
		if err != nil {
			logger.Warn().Err(err).Msg("NATS unavailable, patient events stay local")
		} else {
			defer nc.Close()
			bus = nc
		}
	}

	// Repositories and services
	hospitalRepo := hospital.NewHospitalRepoPG(pool)
	resourceRepo := hospital.NewResourceRepoPG(pool)

	var (
		locator hospital.Locator = hospital.NewStoreLocator(hospitalRepo)
		index   *hospital.ESIndex
	)
	if cfg.HospitalIndex == "elasticsearch" {
		index, err = newESIndex(cfg, hospitalRepo)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure hospital index")
		}
		if err := index.EnsureIndex(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare hospital index")
		}
		locator = index
	}

	hospitalSvc := hospital.NewService(hospitalRepo, resourceRepo, locator)
	if index != nil {
		hospitalSvc.WithIndexer(index, logger)
	}
	ambulanceSvc := ambulance.NewService(ambulance.NewRepoPG(pool))

	hub := websocket.NewHub(logger)
	patientSvc := patient.NewService(patient.NewRepoPG(pool), patient.NewNotifier(hub, bus, logger))

	authority, narrator, err := newScoring(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure scoring")
	}
	estimator := traffic.NewEstimator(newTrafficSource(cfg, rdb, logger), cfg.TrafficTimeout, logger)
	aggregator := recommendation.NewAggregator(locator, resourceRepo, estimator, cfg.RecommendationCandidates, logger)
	recommendationSvc := recommendation.NewService(aggregator, authority, narrator, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.BodyLimit(maxBodySize))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, "/ws"))
	e.Use(authMiddleware(cfg))
	e.Use(middleware.Audit(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	mountAPI(e, middleware.RateLimit(rateLimitCfg), db.ConnMiddleware(pool),
		[]routeRegistrar{recommendation.NewHandler(recommendationSvc, logger)},
		[]routeRegistrar{
			registration.NewHandler(hospitalSvc, ambulanceSvc, logger),
			hospital.NewHandler(hospitalSvc),
			ambulance.NewHandler(ambulanceSvc),
			patient.NewHandler(patientSvc, hospitalSvc, ambulanceSvc),
		})

	websocket.NewHandler(hub, hospitalSvc.AuthorizeTopic, cfg.CORSOrigins, logger).RegisterRoutes(e)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("scoring", cfg.ScoringAuthority).Str("index", cfg.HospitalIndex).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
