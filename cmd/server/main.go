package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/car-rental-marketplace/internal/chatbot"
	"github.com/iliyamo/car-rental-marketplace/internal/config"
	"github.com/iliyamo/car-rental-marketplace/internal/database"
	"github.com/iliyamo/car-rental-marketplace/internal/handler"
	"github.com/iliyamo/car-rental-marketplace/internal/jobs"
	"github.com/iliyamo/car-rental-marketplace/internal/logger"
	"github.com/iliyamo/car-rental-marketplace/internal/middleware"
	"github.com/iliyamo/car-rental-marketplace/internal/queue"
	"github.com/iliyamo/car-rental-marketplace/internal/repository"
	"github.com/iliyamo/car-rental-marketplace/internal/router"
	"github.com/iliyamo/car-rental-marketplace/internal/scheduler"
	"github.com/iliyamo/car-rental-marketplace/internal/service"
	"github.com/iliyamo/car-rental-marketplace/internal/storage"
)

// bookingPublisher is what both the RabbitMQ and the no-op publisher offer.
type bookingPublisher interface {
	service.EventPublisher
	Close() error
}

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	db, err := database.Open(cfg.DB)
	if err != nil {
		logger.Error("database unavailable", "error", err, "host", cfg.DB.Host)
		os.Exit(1)
	}
	defer db.Close()

	var rdb *redis.Client
	if rdb, err = config.NewRedisClient(config.LoadRedisConfig()); err != nil {
		logger.Warn("redis unavailable, rate limiting and caching disabled", "error", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	cars := repository.NewCarRepo(db)
	bookings := repository.NewBookingRepo(db)

	publisher := newPublisher(cfg.RabbitMQ)
	defer publisher.Close()
	if cfg.RabbitMQ.Enabled && cfg.RabbitMQ.ConsumerEnabled {
		consumer := queue.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if cfg.RabbitMQ.LogPath != "" {
			consumer.LogPath = cfg.RabbitMQ.LogPath
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("booking consumer stopped", "error", err)
			}
		}()
	}

	images, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Error("image storage unavailable", "error", err, "driver", cfg.Storage.Driver)
		os.Exit(1)
	}
	uploadDir := ""
	if local, ok := images.(*storage.LocalStore); ok {
		uploadDir = local.Dir()
	}

	carSvc := service.NewCarService(cars, bookings)
	bookingSvc := service.NewBookingService(repository.NewTransactor(db), cars, bookings, publisher)
	bot := chatbot.NewService(chatbot.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model), cars)
	if cfg.LLM.APIKey == "" {
		logger.Warn("GROQ_API_KEY is empty, chat replies will fail")
	}

	cacheCfg := config.LoadCacheConfig()
	purger := middleware.NewCachePurger(cacheCfg, rdb)
	e := router.New(router.Deps{
		App:       cfg.App,
		JWTSecret: cfg.JWT.Secret,
		Users:     users,
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     cacheCfg,
		UploadDir: uploadDir,
		Auth:      handler.NewAuthHandler(cfg.JWT, cfg.Bcrypt.Cost, users, tokens),
		User:      handler.NewUserHandler(users),
		Car:       handler.NewCarHandler(carSvc, purger),
		Booking:   handler.NewBookingHandler(bookingSvc, purger),
		Upload:    handler.NewUploadHandler(images, cfg.Storage.CloudinaryFolder),
		Chatbot:   handler.NewChatbotHandler(bot),
	})

	var sched *scheduler.Scheduler
	if cfg.Jobs.Enabled {
		sched, err = scheduler.New(cfg.Jobs, jobs.NewJobRunner(cars, tokens))
		if err != nil {
			logger.Error("invalid job schedule", "error", err)
			os.Exit(1)
		}
		sched.Start()
	}

	addr := ":" + cfg.App.Port
	go func() {
		logger.Info("server listening", "addr", addr, "env", cfg.App.Env, "storage", cfg.Storage.Driver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if sched != nil {
		sched.Stop()
	}
}

// newPublisher connects to RabbitMQ, falling back to a no-op publisher
// when messaging is disabled or the broker is down at startup.
func newPublisher(cfg config.RabbitMQConfig) bookingPublisher {
	if !cfg.Enabled {
		return queue.NoopPublisher{}
	}
	p, err := queue.NewPublisher(cfg.URL, cfg.Queue)
	if err != nil {
		logger.Warn("rabbitmq unavailable, booking events disabled", "error", err)
		return queue.NoopPublisher{}
	}
	logger.Info("rabbitmq publisher ready", "queue", cfg.Queue)
	return p
}
