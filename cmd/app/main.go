package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/knownet/post-service/internal/ai"
	"github.com/knownet/post-service/internal/config"
	"github.com/knownet/post-service/internal/handler"
	"github.com/knownet/post-service/internal/rabbitmq"
	"github.com/knownet/post-service/internal/repository"
	"github.com/knownet/post-service/internal/repository/memory"
	"github.com/knownet/post-service/internal/repository/postgres"
	"github.com/knownet/post-service/internal/repository/redisrepo"
	"github.com/knownet/post-service/internal/server"
	"github.com/knownet/post-service/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := loadEnv(); err != nil {
		logger.Sugar().Warnf("failed to load .env, using process environment: %s", err.Error())
	}

	if err := initConfig(); err != nil {
		logger.Sugar().Panicf("failed to initialize yaml config: %s", err.Error())
	}

	postRepo, userRepo := initStorage(ctx, logger)

	redisRepo := redisrepo.NewNop()
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		pong, err := rdb.Ping(ctx).Result()
		if err != nil {
			logger.Sugar().Panicf("failed to ping redis: %s", err.Error())
		}
		logger.Sugar().Infof("Successfully connected to Redis: %s", pong)
		redisRepo = redisrepo.New(rdb)
	} else {
		logger.Warn("REDIS_ADDR not set, caching is disabled")
	}

	serviceConfig := config.LoadServiceConfig()

	var mq *rabbitmq.MQConn
	if serviceConfig.Enrichment.Transport == config.TransportRabbitMQ {
		conn, err := rabbitmq.New(os.Getenv("RABBITMQ_CONN_STRING"))
		if err != nil {
			logger.Sugar().Panicf("failed to connect to rabbitmq: %s", err.Error())
		}
		defer conn.Close()
		mq = conn
		logger.Info("Successfully connected to RabbitMQ")
	}

	enricher := ai.New(config.LoadAIConfig(os.Getenv("GEMINI_API_KEY")), logger)

	repos := repository.New(postRepo, userRepo, redisRepo)
	services := service.New(logger, repos, enricher, mq, serviceConfig)
	handlers := handler.New(services)

	srv := server.New()
	serverConfig := config.ServerConfig{
		Port:           viper.GetString("app.port"),
		Handler:        handlers.InitRoutes(),
		MaxHeaderBytes: 1 << 20,
		ReadTimeout:    time.Second * 10,
		WriteTimeout:   time.Second * 30,
	}
	go func() {
		if err := srv.Run(serverConfig); err != nil {
			logger.Sugar().Panicf("failed to run http server: %s", err.Error())
		}
	}()

	go services.StartConsumeAll(ctx)
	go services.StartReconciler(ctx)

	logger.Sugar().Infof("Server started on port %s", serverConfig.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Server shutting down")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second*15)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("failed to shutdown http server: %s", err.Error())
	}

	services.Wait()
}

func initStorage(ctx context.Context, logger *zap.Logger) (repository.Post, repository.User) {
	if viper.GetString("storage.driver") == "memory" {
		logger.Warn("using in-memory storage, data will not survive restarts")
		return memory.New().Repositories()
	}

	dbConfig := config.DBConfig{
		Username: os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     os.Getenv("POSTGRES_PORT"),
		DBName:   os.Getenv("POSTGRES_DATABASE"),
		SSLMode:  os.Getenv("POSTGRES_SSLMODE"),
		MaxConns: viper.GetInt32("postgres.max_conns"),
	}

	if err := postgres.Migrate(dbConfig, logger); err != nil {
		logger.Sugar().Panicf("failed to migrate postgres: %s", err.Error())
	}

	db, err := postgres.DB(ctx, dbConfig)
	if err != nil {
		logger.Sugar().Panicf("failed to connect to postgres: %s", err.Error())
	}
	if err := db.Ping(ctx); err != nil {
		logger.Sugar().Panicf("failed to ping postgres: %s", err.Error())
	}
	logger.Info("Successfully connected to PostgreSQL")

	repo := postgres.New(db, logger)

	return repo.Post, repo.User
}

func loadEnv() error {
	return godotenv.Load()
}

func initConfig() error {
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetConfigName("app")
	return viper.ReadInConfig()
}
