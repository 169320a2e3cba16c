package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/Manthan2028/resqnet/internal/catalog"
	"github.com/Manthan2028/resqnet/internal/config"
	"github.com/Manthan2028/resqnet/internal/dashboard"
	"github.com/Manthan2028/resqnet/internal/events"
	"github.com/Manthan2028/resqnet/internal/feed"
	v1 "github.com/Manthan2028/resqnet/internal/handler/http/v1"
	"github.com/Manthan2028/resqnet/internal/media"
	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/Manthan2028/resqnet/internal/repository"
	"github.com/Manthan2028/resqnet/internal/repository/memory"
	"github.com/Manthan2028/resqnet/internal/service"
	"github.com/Manthan2028/resqnet/internal/session"
	"github.com/Manthan2028/resqnet/internal/webhook"
	"github.com/Manthan2028/resqnet/pkg/logger"
	"github.com/Manthan2028/resqnet/pkg/postgres"
	redisclient "github.com/Manthan2028/resqnet/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/Manthan2028/resqnet/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// bus - канал уведомлений об изменениях: сервис публикует, хаб лент читает
type bus interface {
	Publish(ctx context.Context, event models.IncidentEvent) error
	Subscribe(ctx context.Context) (<-chan models.IncidentEvent, error)
}

// backend - хранилища и каналы, выбранные STORE_BACKEND
type backend struct {
	incidents service.IncidentRepository
	profiles  service.ProfileRepository
	events    bus
	webhooks  webhook.WebhookPublisher
	closers   []func()
	done      []<-chan struct{}
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// @title ResQNet API
// @version 1.0
// @description Emergency incident reporting and coordination API for citizens, volunteers and agencies.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @securityDefinitions.apikey SessionToken
// @in header
// @name X-Session-Token
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

// newPostgresBackend - PostgreSQL для данных, Redis для кеша, уведомлений и очереди вебхуков
func newPostgresBackend(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*backend, error) {
	if err := runMigrations(cfg, log); err != nil {
		return nil, err
	}

	b := &backend{}
	dbpool, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	b.closers = append(b.closers, dbpool.Close)
	log.Info("Successfully connected to PostgreSQL")

	redisClient, err := redisclient.NewRedisClient(ctx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
	})
	if err != nil {
		b.close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	b.closers = append(b.closers, func() { _ = redisClient.Close() })
	log.Info("Successfully connected to Redis")

	b.incidents = repository.NewIncidentRepository(dbpool, redisClient)
	b.profiles = repository.NewProfileRepository(dbpool)
	b.events = events.NewRedisBus(redisClient, cfg.EventsChannel, log)
	b.webhooks = webhook.NewRedisWebhookPublisher(redisClient)

	// Воркер вебхуков читает очередь до отмены ctx
	webhookWorker := webhook.NewWebhookWorker(redisClient, log, cfg)
	b.done = append(b.done, webhookWorker.Start(ctx))
	return b, nil
}

// newMemoryBackend - демонстрационный режим без внешних зависимостей
func newMemoryBackend(log *logrus.Logger) *backend {
	log.Warn("Using in-memory store, data will be lost on restart")
	local := events.NewLocalBus()
	return &backend{
		incidents: memory.NewIncidentStore(),
		profiles:  memory.NewProfileStore(memory.DemoProfiles()...),
		events:    local,
		closers:   []func(){local.Close},
	}
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store *backend
	if cfg.StoreBackend == config.BackendMemory {
		store = newMemoryBackend(log)
	} else {
		store, err = newPostgresBackend(ctx, cfg, log)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
	}
	defer store.close()

	resources, err := catalog.Default()
	if err != nil {
		log.Fatalf("Failed to load resource catalog: %v", err)
	}

	mediaStore, err := media.NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize media store: %v", err)
	}

	// Хаб лент перечитывает выборки по уведомлениям об изменениях
	hub := feed.NewHub(store.incidents, log, feed.WithQueryTimeout(cfg.FeedQueryTimeout))
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		if err := hub.Run(ctx, store.events); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("Feed hub stopped")
		}
	}()

	// Инициализация сервисов
	incidentService := service.NewIncidentService(store.incidents, store.profiles, mediaStore, store.events, store.webhooks, log, cfg)
	profileService := service.NewProfileService(store.profiles, log, cfg)

	// Инициализация хэндлеров
	handler := v1.NewHandler(dashboard.Deps{
		Incidents: incidentService,
		Profiles:  profileService,
		Hub:       hub,
		Catalog:   resources,
	}, session.NewIssuer(cfg.SessionSecret, cfg.SessionTTL), log, cfg)

	// Настройка Gin роутера
	router := gin.Default()
	if strings.HasPrefix(cfg.MediaBaseURL, "/") {
		router.StaticFS(cfg.MediaBaseURL, mediaStore.FileSystem())
	}
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Запуск HTTP-сервера
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s (store: %s)", cfg.HTTPPort, cfg.StoreBackend)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	// Потоки SSE держат соединения открытыми, поэтому ленты закрываются до остановки сервера
	hub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	cancel()
	<-hubDone
	for _, done := range store.done {
		<-done
	}

	log.Info("Server gracefully stopped")
}
