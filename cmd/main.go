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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/klauspost/compress/gzhttp"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/linkcircle/config"
	"github.com/oksasatya/linkcircle/internal/container"
	"github.com/oksasatya/linkcircle/internal/interface/middleware"
	"github.com/oksasatya/linkcircle/internal/router"
	"github.com/oksasatya/linkcircle/pkg/helpers"
	"github.com/oksasatya/linkcircle/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()
	container.SetConfig(cfg)
	container.SetLogger(logger)

	repo, closeStore, err := router.OpenStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeStore()

	// Redis backs the profile cache, rate limits and sessions; without it those degrade
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).Warn("redis unavailable, running without cache and shared rate limits")
		_ = rdb.Close()
	} else {
		container.SetRedis(rdb)
		defer func() { _ = rdb.Close() }()
	}
	cancel()

	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch client init failed, search falls back to scanning")
		} else {
			container.SetES(es)
		}
	}

	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			log.Fatalf("failed to init GCS client: %v", err)
		}
		defer func() { _ = gcsClient.Close() }()
		container.SetGCS(gcsClient)
	}

	if cfg.NotifyEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQNotifyQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable, notifications disabled")
		} else {
			container.SetRabbitPub(pub)
			defer pub.Close()
		}
	}

	container.SetJWT(helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.IdentitySecret, cfg.AccessTTL, cfg.RefreshTTL))

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "ETag", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}
	if container.GetGCS() == nil && cfg.UploadsDir != "" {
		r.Static("/uploads", cfg.UploadsDir)
	}

	reg := router.NewRegistry(r)
	router.InitModules(reg, router.BuildDeps(repo))
	reg.RegisterAll()

	var handler http.Handler = r
	if cfg.GzipEnabled {
		handler = gzhttp.GzipHandler(r)
	}
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.WithFields(logrus.Fields{"port": cfg.Port, "store": cfg.StoreDriver}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}
