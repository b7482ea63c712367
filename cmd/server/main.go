package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/anz-davar/event-management/internal/config"
	"github.com/anz-davar/event-management/internal/database"
	"github.com/anz-davar/event-management/internal/handler"
	"github.com/anz-davar/event-management/internal/lock"
	"github.com/anz-davar/event-management/internal/middleware"
	"github.com/anz-davar/event-management/internal/notify"
	"github.com/anz-davar/event-management/internal/queue"
	"github.com/anz-davar/event-management/internal/repository"
	"github.com/anz-davar/event-management/internal/router"
	"github.com/anz-davar/event-management/internal/seating"
	"github.com/anz-davar/event-management/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()
	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	rdb, err := config.NewRedisClient(config.LoadRedisConfig())
	if err != nil {
		logger.Warn("redis unavailable; rate limiting, caching and the shared lock are disabled", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	seatCfg := config.LoadSeatingConfig()
	brokerCfg := config.LoadBrokerConfig()

	var locker lock.EventLocker = lock.NewLocal()
	if seatCfg.LockBackend == "redis" && rdb != nil {
		locker = lock.NewRedis(rdb, seatCfg.LockPrefix, seatCfg.LockTTL)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	halls := repository.NewHallRepo(db)
	tables := repository.NewTableRepo(db)
	events := repository.NewEventRepo(db)
	eventTables := repository.NewEventTableRepo(db)
	guests := repository.NewGuestRepo(db)
	seats := repository.NewSeatingRepo(db)

	hub := notify.NewHub(logger)
	publisher := service.NewPublisher(brokerCfg, logger)

	seatingSvc := &service.SeatingService{
		Events:    events,
		Guests:    guests,
		Tables:    eventTables,
		Seating:   seats,
		Engine:    seating.NewEngine(seating.Params{Iterations: seatCfg.MaxIterations, TabuLength: seatCfg.TabuLength, StallLimit: seatCfg.StallLimit}),
		Locker:    locker,
		Publisher: publisher,
		Hub:       hub,
		Log:       logger.Named("seating"),
	}
	registration := &service.RegistrationService{
		Events:    events,
		Guests:    guests,
		Publisher: publisher,
		Hub:       hub,
		Log:       logger.Named("registration"),
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	mw := router.Middlewares{
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger.Named("ratelimit")),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}
	h := router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, users, tokens),
		Halls:   handler.NewHallHandler(halls, tables),
		Events:  handler.NewEventHandler(events, halls, tables, eventTables),
		Guests:  handler.NewGuestHandler(events, guests, registration),
		Seating: handler.NewSeatingHandler(events, guests, eventTables, seats, seatingSvc, logger.Named("http")),
		Hub:     hub,
	}
	router.RegisterRoutes(e, db, rdb)
	router.RegisterAuth(e, h.Auth, cfg.JWTSecret, mw)
	router.RegisterOrganizer(e, h, cfg.JWTSecret, mw)
	router.RegisterPublic(e, h, mw)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if brokerCfg.Enabled {
		consumer := queue.NewConsumer(brokerCfg, hub, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("activity consumer stopped", zap.Error(err))
			}
		}()
	}

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
