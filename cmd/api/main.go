package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/amqp"
	"github.com/appdotbuilder/member-contributions-manager/internal/clock"
	"github.com/appdotbuilder/member-contributions-manager/internal/config"
	"github.com/appdotbuilder/member-contributions-manager/internal/events"
	"github.com/appdotbuilder/member-contributions-manager/internal/handler"
	"github.com/appdotbuilder/member-contributions-manager/internal/middleware"
	"github.com/appdotbuilder/member-contributions-manager/internal/repository/postgres"
	"github.com/appdotbuilder/member-contributions-manager/internal/repository/storage"
	"github.com/appdotbuilder/member-contributions-manager/internal/service"
	"github.com/appdotbuilder/member-contributions-manager/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Apply schema migrations before serving
	if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize repositories
	memberRepo := postgres.NewMemberRepository(pool)
	contributionRepo := postgres.NewContributionRepository(pool)
	expenditureRepo := postgres.NewExpenditureRepository(pool)

	// Proof storage is optional; uploads answer 503 without it
	var proofStore storage.ProofStore
	if s3Store, err := storage.NewS3ProofStore(ctx, cfg.S3); err != nil {
		log.Warn().Err(err).Msg("Proof storage unavailable, uploads disabled")
	} else {
		proofStore = s3Store
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Proof storage ready")
	}

	// Event fan-out: live dashboards plus the optional AMQP feed
	hub := websocket.NewHub()
	publisher := events.MultiPublisher{hub}
	if cfg.AMQP.Enabled() {
		feed, err := amqp.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to AMQP broker")
		}
		defer feed.Close()
		go feed.Run(ctx)
		publisher = append(publisher, feed)
		log.Info().Str("exchange", cfg.AMQP.Exchange).Msg("AMQP event feed enabled")
	}

	// Initialize services
	clk := clock.Real{}
	memberService := service.NewMemberService(memberRepo)
	contributionService := service.NewContributionService(contributionRepo, memberRepo, clk, cfg.Location)
	expenditureService := service.NewExpenditureService(expenditureRepo)
	aggregationService := service.NewAggregationService(contributionRepo, memberRepo, clk, cfg.Location)
	dashboardService := service.NewDashboardService(aggregationService, contributionRepo, expenditureRepo, memberRepo)
	proofService := service.NewProofService(proofStore, contributionRepo, expenditureRepo)

	if cfg.Admin.Enabled() {
		seed := service.AdminSeed{AuthSubject: cfg.Admin.AuthSubject, Email: cfg.Admin.Email, Name: cfg.Admin.Name}
		if _, _, err := memberService.EnsureAdmin(ctx, seed); err != nil {
			log.Fatal().Err(err).Msg("Failed to bootstrap administrator")
		}
	}

	memberService.SetEventPublisher(publisher)
	contributionService.SetEventPublisher(publisher)
	expenditureService.SetEventPublisher(publisher)
	proofService.SetEventPublisher(publisher)

	// Background overdue sweep keeps the cached status column fresh
	if cfg.StatusSweepInterval > 0 {
		sweeper := service.NewStatusSweeper(contributionRepo, clk, cfg.Location, log.Logger, cfg.StatusSweepInterval)
		sweeper.SetEventPublisher(publisher)
		sweeper.Start(ctx)
		defer sweeper.Stop()
	}

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, memberService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}
	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, middleware.DefaultBurstSize)
	defer rateLimiter.Stop()

	// Initialize handlers
	memberHandler := handler.NewMemberHandler(memberService)
	contributionHandler := handler.NewContributionHandler(contributionService)
	expenditureHandler := handler.NewExpenditureHandler(expenditureService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, aggregationService)
	proofHandler := handler.NewProofHandler(proofService)
	wsHandler := handler.NewWebSocketHandler(hub, authMiddleware, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Proof uploads are capped at 5MB; leave room for multipart framing
	e.Use(echomiddleware.BodyLimit("6M"))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, memberHandler, contributionHandler, expenditureHandler, dashboardHandler, proofHandler, wsHandler)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("timezone", cfg.Location.String()).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			event := log.Info()
			if res.Status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
