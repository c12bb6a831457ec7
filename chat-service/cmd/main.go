package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-support-chat/chat-service/internal/classifier"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/config"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/domain"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/events"
	chatgrpc "github.com/weiawesome/wes-support-chat/chat-service/internal/grpc"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/handler"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/hub"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/reaper"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/registry"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/repository"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/room"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/service"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/session"
	"github.com/weiawesome/wes-support-chat/pkg/database"
	"github.com/weiawesome/wes-support-chat/pkg/jwt"
	pkglog "github.com/weiawesome/wes-support-chat/pkg/log"
	"github.com/weiawesome/wes-support-chat/pkg/middleware"
	"github.com/weiawesome/wes-support-chat/pkg/pubsub"
)

// lockedValidator rejects every token; used when no admin secret is configured.
type lockedValidator struct{}

func (lockedValidator) ValidateToken(string) (*jwt.Claims, error) {
	return nil, jwt.ErrInvalidToken
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(cfg.Log)
	logger := pkglog.L()

	if len(os.Args) > 1 && os.Args[1] == issueTokenCommand {
		if err := issueToken(cfg.Admin, os.Args[2:], os.Stdout); err != nil {
			logger.Fatal().Err(err).Msg("failed to issue token")
		}
		return
	}

	// Escalation ledger
	if cfg.Database.Driver == "sqlite" && cfg.Database.FilePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.FilePath), 0o755); err != nil {
			logger.Fatal().Err(err).Str("path", cfg.Database.FilePath).Msg("failed to create database directory")
		}
	}
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db, &domain.EscalationCaseModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	caseRepo := repository.NewGormEscalationRepository(db)
	logger.Info().Str("driver", cfg.Database.Driver).Msg("escalation ledger ready")

	// Room directory
	var directory registry.Registry = registry.NopRegistry{}
	if cfg.Redis.Enabled {
		reg, err := registry.NewRedisRegistry(cfg.Redis, cfg.GRPC.AdvertiseAddress)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize room directory")
		}
		directory = reg
		logger.Info().Str("address", cfg.Redis.Address).Msg("room directory connected")
	}
	defer directory.Close()

	// Event bus
	publisher, err := pubsub.NewPublisher(cfg.Events)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize event publisher")
	}
	emitter := events.NewEmitter(publisher)
	defer func() {
		if err := emitter.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close event publisher")
		}
	}()
	logger.Info().Str("driver", cfg.Events.Driver).Msg("event publisher ready")

	// Core
	clf := classifier.WithTimeout(classifier.NewKeywordEnsemble(), cfg.Classifier.Timeout)

	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()
	defer wsHub.Stop()

	supportSvc := service.NewSupportService(
		wsHub,
		session.NewStore(),
		room.NewRegistry(room.DefaultCatalog(), cfg.Room.HistoryCapacity),
		clf,
		directory,
		emitter,
		caseRepo,
		cfg.Room,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := supportSvc.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start support service")
	}
	defer supportSvc.Stop()

	idleReaper := reaper.New(supportSvc, cfg.Session)
	idleReaper.Start(ctx)
	defer idleReaper.Stop()

	// gRPC health
	grpcAddr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
	grpcServer, err := chatgrpc.StartGRPCServer(grpcAddr, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start grpc server")
	}
	defer grpcServer.Shutdown()

	// Operator auth
	var validator middleware.TokenValidator = lockedValidator{}
	if cfg.Admin.JWTSecret != "" {
		manager, err := jwt.NewManager(cfg.Admin.JWTSecret, cfg.Admin.Issuer, cfg.Admin.TokenTTL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create token manager")
		}
		validator = manager
	} else {
		logger.Warn().Msg("admin.jwt_secret not set, operator endpoints are locked")
	}

	// HTTP
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger, "/health"))

	httpHandler := handler.NewHandler(supportSvc, service.NewCaseService(caseRepo), middleware.NewAuthMiddleware(validator))
	httpHandler.RegisterRoutes(r, handler.NewWSHandler(wsHub, supportSvc, cfg.WebSocket))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("support chat listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	grpcServer.SetServing(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("support chat stopped")
}
