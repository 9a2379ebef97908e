package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/learnhub/course-checkout/common/errors"
	"github.com/learnhub/course-checkout/common/logger"
	commonmw "github.com/learnhub/course-checkout/common/middleware"
	"github.com/learnhub/course-checkout/config"
	"github.com/learnhub/course-checkout/controllers"
	"github.com/learnhub/course-checkout/database"
	"github.com/learnhub/course-checkout/events"
	"github.com/learnhub/course-checkout/metrics"
	"github.com/learnhub/course-checkout/middleware"
	"github.com/learnhub/course-checkout/models"
	awspkg "github.com/learnhub/course-checkout/pkg/aws"
	"github.com/learnhub/course-checkout/providers"
	"github.com/learnhub/course-checkout/repository"
	"github.com/learnhub/course-checkout/routes"
	"github.com/learnhub/course-checkout/services"
)

const (
	serviceName        = "course-checkout"
	checkoutPerMinute  = 20
	checkoutBurst      = 5
	requestTimeout     = 30 * time.Second
	shutdownTimeout    = 10 * time.Second
	healthCheckTimeout = 2 * time.Second
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	// AWS is only needed for secrets, CloudWatch or an SNS/SQS event bus.
	var awsCfg *sdkaws.Config
	if cfg.UseSecretsManager || cfg.CloudWatchEnabled || cfg.EventBus == "sns" || cfg.EventBus == "sqs" {
		c, err := awspkg.LoadAWSConfig(ctx)
		if err != nil {
			log.Fatalf("Failed to load AWS config: %v", err)
		}
		awsCfg = &c
	}

	if cfg.UseSecretsManager {
		if err := cfg.ApplySecrets(ctx, awspkg.NewSecretsClient(*awsCfg)); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	var cwLogs *awspkg.CloudWatchLogsClient
	if cfg.CloudWatchEnabled {
		if cwLogs, err = awspkg.NewCloudWatchLogsClient(ctx, *awsCfg, cfg.CloudWatchGroup, serviceName); err != nil {
			log.Printf("CloudWatch logs unavailable, logging to stdout only: %v", err)
			cwLogs = nil
		}
	}
	zapLogger, err := newLogger(cfg.AppEnv, cwLogs)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync() //nolint:errcheck

	db, err := database.ConnectPostgres(cfg.DSN(), zapLogger,
		&models.Course{}, &models.Order{}, &models.OrderItem{}, &models.Payment{}, &models.Enrollment{})
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db) //nolint:errcheck

	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer rdb.Close()

	var cwMetrics *awspkg.MetricsClient
	if cfg.CloudWatchEnabled {
		cwMetrics = awspkg.NewMetricsClient(*awsCfg, cfg.CloudWatchNS, true)
	}
	checkoutMetrics := metrics.New(prometheus.DefaultRegisterer, cwMetrics)

	publisher, closePublisher := newPublisher(cfg, awsCfg, zapLogger)
	defer closePublisher()

	// Repositories
	carts := repository.NewRedisCartRepository(rdb, cfg.CartTTL)
	courses := repository.NewGormCourseRepository(db)
	orders := repository.NewGormOrderRepository(db)
	payments := repository.NewGormPaymentRepository(db)
	enrollments := repository.NewGormEnrollmentRepository(db)

	// Gateways
	momo := providers.NewMoMoProvider(cfg.MoMo, cfg.PublicBaseURL, cfg.FrontendURL, zapLogger)
	vnpay := providers.NewVNPayProvider(cfg.VNPay, cfg.PublicBaseURL)
	for _, p := range []providers.Provider{momo, vnpay} {
		if err := p.Validate(); err != nil {
			zapLogger.Warn("Payment provider disabled until configured", zap.String("provider", string(p.Name())), zap.Error(err))
		}
	}
	registry := providers.NewRegistry(momo, vnpay)

	// Services
	cartService := services.NewCartService(carts, courses, zapLogger)
	snapshots := services.NewCartSnapshotBuilder(carts, courses, cfg.Currency, zapLogger)
	checkoutService := services.NewCheckoutService(registry, snapshots, orders, payments, checkoutMetrics, zapLogger)
	fulfillment := services.NewFulfillmentEngine(orders, payments, enrollments, carts, publisher, checkoutMetrics, zapLogger)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(commonmw.RequestLogger(zapLogger))
	if cwMetrics.IsEnabled() {
		r.Use(commonmw.MetricsMiddleware(cwMetrics, serviceName))
	}
	r.Use(commonmw.SecurityHeaders())
	r.Use(commonmw.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(commonmw.Timeout(requestTimeout))
	r.Use(apperrors.ErrorMiddleware())

	r.GET("/health", healthHandler(db, rdb))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	routes.RegisterRoutes(r, routes.Controllers{
		Cart:     controllers.NewCartController(cartService),
		Checkout: controllers.NewCheckoutController(checkoutService),
		Order:    controllers.NewOrderController(orders, zapLogger),
		Payment:  controllers.NewPaymentCallbackController(registry, fulfillment, checkoutMetrics, cfg.FrontendURL, zapLogger),
	}, middleware.AuthMiddleware([]byte(cfg.JWTSecret)), commonmw.RateLimitMiddleware(checkoutPerMinute, checkoutBurst))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	zapLogger.Info("Checkout service started", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
	<-quit
	zapLogger.Info("Shutting down checkout service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exited cleanly")
}

// newLogger keeps a nil client from reaching logger.New as a non-nil io.Writer.
func newLogger(env string, cwLogs *awspkg.CloudWatchLogsClient) (*zap.Logger, error) {
	if cwLogs == nil {
		return logger.New(env, nil)
	}
	return logger.New(env, cwLogs)
}

// newPublisher selects the event bus. A misconfigured bus falls back to no
// events; payments still complete.
func newPublisher(cfg *config.Config, awsCfg *sdkaws.Config, l *zap.Logger) (events.Publisher, func()) {
	noop := func() {}
	switch cfg.EventBus {
	case "sns":
		if cfg.PaymentSNSTopicARN == "" {
			l.Warn("EVENT_BUS=sns without PAYMENT_SNS_TOPIC_ARN, events disabled")
			return events.NoopPublisher{}, noop
		}
		return events.NewSNSPublisher(awspkg.NewSNSClient(*awsCfg), cfg.PaymentSNSTopicARN), noop
	case "sqs":
		if cfg.PaymentSQSQueueURL == "" {
			l.Warn("EVENT_BUS=sqs without PAYMENT_SQS_QUEUE_URL, events disabled")
			return events.NoopPublisher{}, noop
		}
		return events.NewSQSPublisher(awspkg.NewSQSClient(*awsCfg), cfg.PaymentSQSQueueURL), noop
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			l.Warn("EVENT_BUS=kafka without KAFKA_BROKERS, events disabled")
			return events.NoopPublisher{}, noop
		}
		p := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaPaymentTopic)
		return p, func() {
			if err := p.Close(); err != nil {
				l.Warn("Failed to close Kafka writer", zap.Error(err))
			}
		}
	default:
		return events.NoopPublisher{}, noop
	}
}

func healthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		status := gin.H{"status": "healthy", "service": serviceName, "database": "ok", "redis": "ok"}
		code := http.StatusOK

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["database"] = "unavailable"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			status["redis"] = "unavailable"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
