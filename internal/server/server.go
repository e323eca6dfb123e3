// Package server contains the HTTP handlers and route table for the API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"zilean/internal/cache"
	"zilean/internal/config"
	"zilean/internal/database"
	"zilean/internal/guard"
	"zilean/internal/mail"
	"zilean/internal/middleware"
	"zilean/internal/models"
	"zilean/internal/repository"
	"zilean/internal/service"
	"zilean/internal/storage"
	"zilean/internal/token"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus

	userRepo    repository.UserRepository
	comicRepo   repository.ComicRepository
	storyRepo   repository.StoryRepository
	commentRepo repository.CommentRepository
	ratingRepo  repository.RatingRepository
	subRepo     repository.SubscriptionRepository
	imageRepo   repository.ImageRepository

	lifecycle     *service.LifecycleService
	ratingService *service.RatingService
	subService    *service.SubscriptionService
	comments      *service.CommentService

	pipeline *guard.Pipeline
	mailer   mail.Mailer
	store    storage.ObjectStore
}

// userSource adapts UserRepository to the guard chain's principal lookup.
type userSource struct {
	repo repository.UserRepository
}

func (u userSource) UserByID(ctx context.Context, id uint) (*models.User, error) {
	return u.repo.GetByID(ctx, id)
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	store, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("object store init failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, redisClient, store, mail.NewLogMailer(cfg.MailFrom))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use this with an in-memory database and miniredis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.ObjectStore, mailer mail.Mailer) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	comicRepo := repository.NewComicRepository(db)
	storyRepo := repository.NewStoryRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	imageRepo := repository.NewImageRepository(db)

	// The prometheus middleware registers collectors on the default registry,
	// which can only happen once per process.
	var prom *fiberprometheus.FiberPrometheus
	if cfg.Env != "test" {
		prom = middleware.InitMetrics("zilean-api")
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		userRepo:       userRepo,
		comicRepo:      comicRepo,
		storyRepo:      storyRepo,
		commentRepo:    commentRepo,
		ratingRepo:     ratingRepo,
		subRepo:        subRepo,
		imageRepo:      imageRepo,
		mailer:         mailer,
		store:          store,
	}
	server.lifecycle = service.NewLifecycleService(comicRepo, storyRepo)
	server.ratingService = service.NewRatingService(ratingRepo)
	server.subService = service.NewSubscriptionService(subRepo, userRepo)
	server.comments = service.NewCommentService(commentRepo)
	server.pipeline = guard.NewPipeline(userSource{userRepo}, cfg.RequireVerified)

	return server, nil
}

// comicResolver resolves a comic for the guard chain.
func (s *Server) comicResolver(ctx context.Context, id uint) (models.Resource, error) {
	return s.comicRepo.GetByID(ctx, id)
}

// storyResolver resolves a story for the guard chain.
func (s *Server) storyResolver(ctx context.Context, id uint) (models.Resource, error) {
	return s.storyRepo.GetByID(ctx, id)
}

// imageResolver resolves an image for the guard chain.
func (s *Server) imageResolver(ctx context.Context, id uint) (models.Resource, error) {
	return s.imageRepo.GetByID(ctx, id)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// OpenTelemetry spans per request
	app.Use(middleware.TracingMiddleware())

	// Context middleware to propagate request ID and user ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before middlewares that can short-circuit (e.g. limiter) so
	// browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	// Session identity: resolves a principal when a valid token is present,
	// leaves the request anonymous otherwise. Enforcement belongs to the
	// guard chain.
	app.Use(s.SessionMiddleware())
}

// SessionMiddleware parses the Authorization header and stores the
// authenticated user ID in locals. It never rejects: routes that require a
// principal carry the authenticated guard, which produces the 401.
func (s *Server) SessionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Next()
		}

		sess, err := token.ParseSession(s.config.JWTSecret, parts[1])
		if err != nil {
			return c.Next()
		}
		if sess.JTI != "" && cache.IsTokenBlacklisted(c.UserContext(), sess.JTI) {
			return c.Next()
		}

		c.Locals("userID", sess.UserID)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, sess.UserID)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Zilean Backend Metrics Dashboard",
	}))

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	signedIn := guard.Middleware(s.pipeline.SignedIn())
	active := guard.Middleware(s.pipeline.Active())

	// Account routes. Specific paths before the generic /:id.
	account := app.Group("/account")
	account.Post("/register", middleware.RateLimit(s.redis, 3, 10*time.Minute, "register"), s.Register)
	account.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	account.Post("/logout", signedIn, s.Logout)
	account.Post("/forgot-password", middleware.RateLimit(s.redis, 3, 10*time.Minute, "forgot"), s.ForgotPassword)
	account.Post("/reset-password-verify", s.ResetPasswordVerify)
	account.Post("/reset-password", s.ResetPassword)
	account.Post("/send-verify", middleware.RateLimit(s.redis, 3, 10*time.Minute, "send_verify"), s.SendVerify)
	account.Post("/verify", s.VerifyAccount)
	account.Post("/subscribe", signedIn, s.Subscribe)
	account.Post("/unsubscribe", signedIn, s.Unsubscribe)
	account.Get("/subscriptions", signedIn, s.GetSubscriptions)
	account.Get("/search", s.SearchUsers)
	account.Get("/findUser/:username", s.GetUserByUsername)
	account.Get("/", signedIn, s.GetAccount)
	account.Put("/", signedIn, s.UpdateAccount)
	account.Delete("/", signedIn, s.DeleteAccount)
	account.Get("/:id", s.GetUser)

	s.setupContentRoutes(app.Group("/comic"), models.KindComic, s.comicResolver, active)
	s.setupContentRoutes(app.Group("/story"), models.KindStory, s.storyResolver, active)

	// Image routes
	imageMutating := guard.Middleware(s.pipeline.Mutating(models.KindImage, s.imageResolver))
	image := app.Group("/image")
	image.Get("/search", s.SearchImages)
	image.Post("/", active, s.UploadImage)
	image.Put("/:id", imageMutating, s.UpdateImage)
	image.Delete("/:id", imageMutating, s.DeleteImage)
	image.Get("/:id", s.GetImage)
}

// setupContentRoutes mounts the identical route set comics and stories share.
func (s *Server) setupContentRoutes(g fiber.Router, kind string, resolve guard.Resolver, active fiber.Handler) {
	mutating := guard.Middleware(s.pipeline.Mutating(kind, resolve))
	interacting := guard.Middleware(s.pipeline.Interacting(kind, resolve))

	g.Get("/search", s.SearchContent(kind))
	g.Post("/", active, s.CreateContent(kind))
	g.Put("/publish/:id", mutating, s.PublishContent)
	g.Put("/unpublish/:id", mutating, s.UnpublishContent)
	g.Post("/rate/:id", interacting, s.RateContent)
	g.Post("/comment/:id", interacting, s.CommentContent)
	g.Delete("/comment/:id", interacting, s.DeleteContentComment)
	resolved := guard.Middleware(guard.Chain{guard.ResourceResolved(kind, resolve)})
	g.Get("/comments/:id", resolved, s.ListContentComments)
	g.Get("/:id", resolved, s.GetContent)
	g.Put("/:id", mutating, s.UpdateContent)
	g.Delete("/:id", mutating, s.DeleteContent)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if err := cache.Ping(ctx); errors.Is(err, cache.ErrNotConfigured) {
		redisStatus = "unavailable"
	} else if err != nil {
		redisStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Zilean API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
