package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kyegomez/mcs-platform-sub001/config"
	"github.com/kyegomez/mcs-platform-sub001/internal/api/rest"
	"github.com/kyegomez/mcs-platform-sub001/internal/api/rest/handlers"
	"github.com/kyegomez/mcs-platform-sub001/internal/domain"
	"github.com/kyegomez/mcs-platform-sub001/internal/kafka/producer"
	"github.com/kyegomez/mcs-platform-sub001/internal/ledger"
	"github.com/kyegomez/mcs-platform-sub001/internal/metrics"
	"github.com/kyegomez/mcs-platform-sub001/internal/pricefeed"
	"github.com/kyegomez/mcs-platform-sub001/internal/repository"
	"github.com/kyegomez/mcs-platform-sub001/internal/service"
	"github.com/kyegomez/mcs-platform-sub001/internal/solana"
	"github.com/kyegomez/mcs-platform-sub001/pkg/logger"
)

func main() {
	log := logger.New(logger.DEBUG)

	log.Infow("Subscription service starting up...")

	// Загружаем конфигурацию
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalw("Failed to load configuration", "error", err)
	}
	if cfg.Solana.RecipientWallet == "" {
		log.Warnw("Platform recipient wallet is not configured, payment verification will reject all transactions")
	}

	// Устанавливаем режим Gin в зависимости от окружения
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Статический каталог уровней строится один раз и внедряется в компоненты
	catalog := domain.DefaultTierCatalog()

	// Реестр метрик Prometheus
	registry := prometheus.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(registry, log)

	// Хранилище подписок: PostgreSQL при наличии DSN, иначе локальное
	var store repository.SubscriptionStore
	if cfg.Database.DSN != "" {
		db, err := sqlx.Connect("pgx", cfg.Database.DSN)
		if err != nil {
			log.Fatalw("Failed to connect to database", "error", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Errorw("Error closing database connection", "error", err)
			}
		}()
		log.Infow("Database connection established")

		store = repository.NewPostgresSubscriptionStore(db, log)

		// Redis кеш поверх БД, если доступен
		if cfg.Redis.Addr != "" {
			redisCache, err := repository.NewRedisCacheRepository(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
			if err != nil {
				log.Warnw("Failed to initialize Redis cache, continuing without caching", "error", err)
			} else {
				defer func() {
					if err := redisCache.Close(); err != nil {
						log.Errorw("Error closing Redis connection", "error", err)
					}
				}()
				store = repository.NewCachedSubscriptionStore(store, redisCache, log)
				log.Infow("Using cached subscription store")
			}
		}
	} else {
		log.Warnw("Database DSN is not configured, using in-process subscription store")
		store = repository.NewLocalSubscriptionStore(log)
	}

	// Сервис подписок
	ledgerSvc := ledger.NewService(store, catalog, log)

	// Kafka producer опционален: недоступность брокера не должна
	// блокировать проверку платежей
	var paymentEvents service.PaymentEventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		syncProducer, err := producer.NewSyncProducer(cfg.Kafka.Brokers)
		if err != nil {
			log.Errorw("Failed to initialize Kafka producer, continuing without event publishing", "error", err)
		} else {
			kafkaProducer := producer.NewKafkaSubscriptionProducer(syncProducer, log)
			paymentEvents = kafkaProducer
			defer func() {
				if err := kafkaProducer.Close(); err != nil {
					log.Errorw("Error closing Kafka producer", "error", err)
				}
			}()

			// Каждое обновление подписки уходит в Kafka через подписчика
			ledgerSvc.Subscribe(ledger.ListenerFunc(func(sub domain.UserSubscription) {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := kafkaProducer.PublishSubscriptionUpdated(ctx, sub); err != nil {
					log.Warnw("Failed to publish subscription event", "error", err, "userID", sub.UserID)
				}
			}))
			log.Infow("Kafka producer initialized", "brokers", cfg.Kafka.Brokers)
		}
	}

	// Клиенты внешних сервисов
	chainClient := solana.NewClient(solana.Config{
		RPCURL:  cfg.Solana.RPCURL,
		Timeout: time.Duration(cfg.Solana.TimeoutSeconds) * time.Second,
	}, log)

	rateClient := pricefeed.NewClient(pricefeed.Config{
		BaseURL:         cfg.Pricing.PriceFeedURL,
		AssetID:         cfg.Pricing.AssetID,
		FallbackRateUSD: cfg.Pricing.FallbackRateUSD,
		Timeout:         time.Duration(cfg.Pricing.TimeoutSeconds) * time.Second,
	}, paymentMetrics, log)

	// Сервис проверки платежей
	paymentSvc := service.NewPaymentService(
		ledgerSvc,
		catalog,
		chainClient,
		rateClient,
		cfg.Solana.RecipientWallet,
		paymentEvents,
		paymentMetrics,
		log,
	)

	// HTTP обработчики и роутер
	paymentHandler := handlers.NewPaymentHandler(paymentSvc, log)
	subscriptionHandler := handlers.NewSubscriptionHandler(ledgerSvc, catalog, log)
	router := rest.SetupRouter(log, registry, paymentHandler, subscriptionHandler)

	server := rest.NewServer(router, cfg, log)

	// Запускаем сервер в отдельной горутине
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalw("Server failed", "error", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Server forced to shutdown", "error", err)
	}

	log.Infow("Server exited")
}
