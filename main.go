package main

import (
	"context"
	"os"
	"time"

	"github.com/Kariqs/amexan-commerce/controllers"
	"github.com/Kariqs/amexan-commerce/events"
	"github.com/Kariqs/amexan-commerce/gateways/pesapal"
	"github.com/Kariqs/amexan-commerce/initializers"
	"github.com/Kariqs/amexan-commerce/middlewares"
	"github.com/Kariqs/amexan-commerce/repositories"
	"github.com/Kariqs/amexan-commerce/routes"
	"github.com/Kariqs/amexan-commerce/services"
	"github.com/Kariqs/amexan-commerce/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func init() {
	initializers.LoadEnv()
}

func main() {
	cfg, err := initializers.LoadConfig()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := initializers.InitLogger(cfg.LogLevel)

	if _, err := initializers.ConnectToDB(cfg); err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	if err := initializers.SyncDatabase(); err != nil {
		logger.Fatal().Err(err).Msg("database migration failed")
	}

	ctx := context.Background()
	redisClient, err := initializers.ConnectToRedis(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, idempotency keys disabled")
		redisClient = nil
	}

	var publisher events.Publisher = events.NopPublisher{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		publisher = events.NewKafkaPublisher(events.KafkaConfig{Brokers: brokers, Topic: cfg.KafkaTopic})
	}
	defer publisher.Close()

	var gateway services.PaymentGateway
	if cfg.PesapalKey != "" && cfg.PesapalSecret != "" {
		gateway = pesapal.NewClient(pesapal.Config{
			BaseURL:        cfg.PesapalBaseURL,
			ConsumerKey:    cfg.PesapalKey,
			ConsumerSecret: cfg.PesapalSecret,
			NotificationID: cfg.PesapalNotifyID,
			CallbackURL:    cfg.PesapalCallback,
		})
	}

	var images services.ImageStore
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, cfg.S3Bucket)
		if err != nil {
			logger.Warn().Err(err).Msg("s3 unavailable, image uploads disabled")
		} else {
			images = s3Store
		}
	}

	store := repositories.NewStore(initializers.DB)
	opts := services.Options{MaxRetries: cfg.TxMaxRetries, Logger: logger, Publisher: publisher}
	coupons := services.NewCouponService(store, opts)
	orders := services.NewOrderService(store, coupons, opts)
	controller := controllers.New(controllers.Services{
		Accounts:  services.NewAccountService(store, cfg.JWTSecret, opts),
		Catalog:   services.NewCatalogService(store, images, opts),
		Carts:     services.NewCartService(store, orders, opts),
		Orders:    orders,
		Coupons:   coupons,
		Payments:  services.NewPaymentService(store, gateway, opts),
		Shipments: services.NewShipmentService(store, orders, opts),
	}, logger)

	gin.SetMode(cfg.GinMode)
	server := gin.New()
	server.Use(
		middlewares.RequestLogger(logger),
		gin.Recovery(),
		middlewares.NewMetrics(prometheus.DefaultRegisterer, "api").Middleware(),
	)
	server.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Origins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middlewares.IdempotencyHeader},
		ExposeHeaders:    []string{"Content-Length", middlewares.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	server.GET("/metrics", gin.WrapH(promhttp.Handler()))

	routes.Register(server, controller, routes.Middlewares{
		Auth:        middlewares.RequireAuth(cfg.JWTSecret),
		Admin:       middlewares.RequireAdmin(),
		Idempotency: middlewares.Idempotency(redisClient, cfg.IdempotencyTTL, logger),
	})

	logger.Info().Str("port", cfg.Port).Msg("server starting")
	if err := server.Run(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
