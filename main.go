package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"availability-service/internal/db"
	"availability-service/internal/handlers"
	"availability-service/internal/logger"
	"availability-service/internal/metrics"
	"availability-service/internal/middleware"
	"availability-service/internal/observability"
	"availability-service/internal/rabbitmq"
	"availability-service/internal/scheduler"
	"availability-service/internal/services"
	"availability-service/internal/social"
	"availability-service/internal/store"
	"availability-service/internal/telemetry"
)

func main() {
	mongoURI := getEnv("MONGO_URI", "mongodb://localhost:27017")
	mongoDB := getEnv("MONGO_DB", "availability")
	jwtSecret := os.Getenv("JWT_SECRET")
	amqpURL := os.Getenv("AMQP_URL")
	logsExchange := getEnv("LOGS_EXCHANGE", "logs.events")
	serviceName := getEnv("SERVICE_NAME", "availability-service")
	environment := getEnv("ENVIRONMENT", "local")
	port := getEnv("PORT", "8080")

	if jwtSecret == "" {
		logger.Fatalf("JWT_SECRET environment variable must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(mongoURI, mongoDB)
	if err != nil {
		logger.Fatalf("failed to connect to mongodb: %v", err)
	}
	docs := store.NewMongoStore(database)

	publisher := rabbitmq.NewNoopPublisher()
	if amqpURL == "" {
		logger.Warnf("AMQP_URL not set; event publishing disabled")
	} else {
		pub, err := rabbitmq.NewPublisher(amqpURL, "app.events")
		if err != nil {
			logger.Warnf("failed to initialize RabbitMQ publisher: %v", err)
		} else {
			publisher = pub
		}
	}
	defer publisher.Close()

	auditPublisher := rabbitmq.NewNoopPublisher()
	if amqpURL == "" {
		logger.Warnf("AMQP_URL not set; audit publishing disabled")
	} else {
		pub, err := rabbitmq.NewPublisher(amqpURL, logsExchange)
		if err != nil {
			logger.Warnf("failed to initialize RabbitMQ audit publisher: %v", err)
		} else {
			auditPublisher = pub
		}
	}
	defer auditPublisher.Close()

	metrics.RegisterDomainMetrics()
	observability.InitMetrics(prometheus.DefaultRegisterer)

	userService := services.NewUserService(docs)
	planScheduler := scheduler.NewPlanScheduler(docs, publisher)
	coordinator := social.NewSocialCoordinator(docs, userService, publisher)

	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, serviceName, environment)
	userHandler := handlers.NewUserHandler(userService)
	planHandler := handlers.NewPlanHandler(planScheduler, auditEmitter)
	friendHandler := handlers.NewFriendHandler(coordinator, userService, auditEmitter)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/users/:id", userHandler.GetUserByID)

	auth := r.Group("", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", userHandler.GetMe)
	auth.PUT("/me", userHandler.SaveMe)
	auth.PUT("/me/status", userHandler.SetStatus)

	auth.POST("/plans", planHandler.CreatePlan)
	auth.GET("/plans", planHandler.ListPlans)
	auth.GET("/plans/days", planHandler.PlannedDays)
	auth.PUT("/plans/:id", planHandler.UpdatePlan)
	auth.DELETE("/plans/:id", planHandler.DeletePlan)

	auth.POST("/friends/request", friendHandler.SendRequest)
	auth.GET("/friends/requests/incoming", friendHandler.ListIncoming)
	auth.POST("/friends/requests/:id/accept", friendHandler.AcceptRequest)
	auth.POST("/friends/requests/:id/decline", friendHandler.DeclineRequest)
	auth.DELETE("/requests/outgoing/:peer_id", friendHandler.CancelRequest)
	auth.GET("/friends", friendHandler.ListFriends)
	auth.DELETE("/friends/:peer_id", friendHandler.RemoveFriend)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server shutdown error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
