package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"qcmanager/config"
	"qcmanager/handlers"
	"qcmanager/middleware"
	"qcmanager/models"
	"qcmanager/routes"
	"qcmanager/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()
	config.InitLogger(cfg)
	handlers.Debug = cfg.Debug

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := models.Migrate(db); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Redis unreachable, attempt sessions will fail until it is back")
	}

	// Initialize services
	userService := services.NewUserService(db)
	authService := services.NewAuthService(db, cfg.JWTSecret, cfg.JWTTTL)
	qcmService := services.NewQCMService(db)
	questionService := services.NewQuestionService(db)
	attemptService := services.NewAttemptService(db, services.NewSessionStore(redisClient, cfg.AttemptSessionTTL))
	statsService := services.NewStatsService(db)

	if err := userService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.WithError(err).Fatal("Failed to create bootstrap administrator")
	}

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run(ctx)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(), middleware.CORS())

	routes.SetupRoutes(router, routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService, hub),
		QCM:      handlers.NewQCMHandler(qcmService, hub),
		Question: handlers.NewQuestionHandler(questionService, hub),
		Attempt:  handlers.NewAttemptHandler(attemptService, hub),
		Stats:    handlers.NewStatsHandler(statsService),
		User:     handlers.NewUserHandler(userService),
	}, authService)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
	if err := redisClient.Close(); err != nil {
		log.WithError(err).Warn("Closing redis failed")
	}
}
