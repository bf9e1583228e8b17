package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kyegomez/mcs-platform-sub001/internal/api/rest/handlers"
	"github.com/kyegomez/mcs-platform-sub001/internal/api/rest/middleware"
	"github.com/kyegomez/mcs-platform-sub001/pkg/logger"
)

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(
	log *logger.Logger,
	registry *prometheus.Registry,
	paymentHandler *handlers.PaymentHandler,
	subscriptionHandler *handlers.SubscriptionHandler,
) *gin.Engine {
	r := gin.New()

	// Подключение middleware
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(gin.Recovery())

	// Endpoint для проверки работоспособности сервиса
	r.GET("/health", handlers.HealthCheck)

	// Prometheus метрики
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Каталог уровней публичный: его читает страница тарифов
	r.GET("/api/v1/tiers", subscriptionHandler.ListTiers)

	identity := middleware.IdentityMiddleware(log)

	// Проверка платежа
	payment := r.Group("/api/payment", identity)
	{
		payment.POST("/verify", paymentHandler.VerifyPayment)
	}

	// Подписка и учет использования
	v1 := r.Group("/api/v1", identity)
	{
		subscription := v1.Group("/subscription")
		{
			subscription.GET("", subscriptionHandler.GetSubscription)
			subscription.GET("/usage", subscriptionHandler.GetUsage)
			subscription.POST("/usage", subscriptionHandler.IncrementUsage)
		}
	}

	return r
}
