// Package server contains the HTTP handlers and wiring for the kinship API.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kinship/internal/cache"
	"kinship/internal/chatroom"
	"kinship/internal/config"
	"kinship/internal/database"
	"kinship/internal/middleware"
	"kinship/internal/models"
	"kinship/internal/observability"
	"kinship/internal/repository"
	"kinship/internal/service"
	"kinship/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
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
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	tokens     *session.Manager
	limiter    *middleware.RateLimiter
	dispatcher *chatroom.Dispatcher
	reconciler *chatroom.Reconciler
	rooms      *chatroom.Lister

	authService    *service.AuthService
	followService  *service.FollowService
	postService    *service.PostService
	profileService *service.ProfileService
}

// NewServer connects to the database and Redis and builds a Server on top of them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	rdb, err := cache.NewClient(context.Background(), cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis client: %w", err)
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself. opts configure
// the session token manager.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client, opts ...session.Option) (*Server, error) {
	users := repository.NewUserRepository(db)
	follows := repository.NewFollowRepository(db)

	tokens, err := session.NewManager(cfg.JWTSecret, cfg.JWTRefreshSecret, users, opts...)
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}

	store := chatroom.NewRedisStore(rdb)
	writer := chatroom.NewWriter(store)
	var provisioner chatroom.Provisioner = writer
	var dispatcher *chatroom.Dispatcher
	if cfg.RoomProvisioningMode != config.RoomModeSync {
		dispatcher = chatroom.NewDispatcher(writer, chatroom.DispatcherConfig{
			Workers:     cfg.RoomWorkers,
			QueueSize:   cfg.RoomQueueSize,
			MaxAttempts: cfg.RoomMaxAttempts,
		})
		provisioner = dispatcher
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          rdb,
		promMiddleware: middleware.InitMetrics("kinship-api"),
		tokens:         tokens,
		limiter:        middleware.NewRateLimiter(rdb, middleware.EnabledFor(cfg.Env)),
		dispatcher:     dispatcher,
		reconciler:     chatroom.NewReconciler(follows, users, store, writer),
		rooms:          chatroom.NewLister(store),
		authService: service.NewAuthService(users, tokens,
			service.NewLocalAvatarRemover(cfg.UploadDir), cfg.AdminKey),
		followService:  service.NewFollowService(follows, users, provisioner),
		postService:    service.NewPostService(repository.NewPostRepository(db), repository.NewCommentRepository(db), follows),
		profileService: service.NewProfileService(users, repository.NewProfileRepository(db)),
	}
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())
	return s, nil
}

// App returns the Fiber application, building it on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName: "Kinship API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if models.StatusFor(err) >= fiber.StatusInternalServerError {
				observability.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err.Error())
			}
			return models.RespondWithError(c, err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
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
			return c.Method() == fiber.MethodOptions || !middleware.EnabledFor(s.config.Env)
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Message: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	app.Get("/ping", s.Ping)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, middleware.MetricsPath)
	}

	// Every API request passes the session interceptor once; guards only read its result.
	api := app.Group("/api/v1", s.SessionRefresh())
	authed := s.RequireSession()

	auth := api.Group("/auth")
	auth.Post("/register", s.limiter.Limit("register", 5, 10*time.Minute, middleware.FailOpen), s.Register)
	auth.Post("/admin/register", s.limiter.Limit("admin_register", 3, 10*time.Minute, middleware.FailClosed), s.RegisterAdmin)
	auth.Post("/login", s.limiter.Limit("login", 10, 5*time.Minute, middleware.FailClosed), s.Login)
	auth.Post("/logout", authed, s.Logout)
	auth.Post("/refresh-token", s.RefreshToken)
	auth.Delete("/delete", authed, s.DeleteAccount)

	follow := api.Group("/follow")
	follow.Post("/following/:targetId", authed,
		s.limiter.Limit("follow", 30, time.Minute, middleware.FailOpen), s.Follow)
	follow.Delete("/unfollow/:targetId", authed, s.Unfollow)
	follow.Get("/follower", authed, s.GetOwnRelations)
	follow.Get("/follower/:userId", s.GetRelations)

	profile := api.Group("/profile")
	profile.Get("/", authed, s.GetMyProfile)
	profile.Put("/", authed, s.UpdateMyProfile)
	profile.Put("/update", authed, s.UpdateMyProfile)
	profile.Get("/:userId", s.GetProfile)

	// Specific /like and /:id/comment routes before the generic /:id routes
	post := api.Group("/post")
	post.Get("/", s.GetPosts)
	post.Post("/", authed, s.limiter.Limit("create_post", 10, time.Minute, middleware.FailOpen), s.CreatePost)
	post.Post("/like/:id", authed, s.LikePost)
	post.Post("/unlike/:id", authed, s.UnlikePost)
	post.Get("/:id/comment", s.GetComments)
	post.Post("/:id/comment", authed, s.limiter.Limit("create_comment", 10, time.Minute, middleware.FailOpen), s.CreateComment)
	post.Get("/:id", s.GetPost)
	post.Put("/:id", authed, s.UpdatePost)
	post.Delete("/:id", authed, s.DeletePost)

	api.Get("/chat/rooms", authed, s.GetChatRooms)
}

// Start runs the background reconciler and serves HTTP until the app is shut down.
func (s *Server) Start() error {
	app := s.App()

	if interval := time.Duration(s.config.RoomReconcileIntervalSec) * time.Second; interval > 0 {
		go s.reconciler.RunEvery(s.shutdownCtx, interval)
	}

	observability.Logger.Info("server starting", "port", s.config.Port,
		"room_provisioning", s.config.RoomProvisioningMode)
	return app.Listen(":" + s.config.Port)
}

// Run starts the server and blocks until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Run() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return s.RunWithQuit(quit)
}

// RunWithQuit behaves like Run but waits on the provided channel instead of OS signals.
func (s *Server) RunWithQuit(quit <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown stops accepting requests, drains pending room writes and closes the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.Logger.Error("error shutting down HTTP server", "error", err.Error())
		}
	}

	// Pairs still queued after the deadline are left for the reconciler.
	if s.dispatcher != nil {
		if err := s.dispatcher.Close(ctx); err != nil {
			observability.Logger.Warn("room dispatcher did not drain", "error", err.Error())
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			observability.Logger.Error("error closing sql DB", "error", cerr.Error())
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			observability.Logger.Error("error closing redis", "error", rerr.Error())
		}
	}

	observability.Logger.Info("server shutdown complete")
	return nil
}
