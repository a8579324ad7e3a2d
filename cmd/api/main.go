package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/shop/backend/internal/auth"
	"github.com/shop/backend/internal/cart"
	"github.com/shop/backend/internal/catalog"
	"github.com/shop/backend/internal/config"
	"github.com/shop/backend/internal/httpx"
	kafkax "github.com/shop/backend/internal/kafka"
	"github.com/shop/backend/internal/logger"
	"github.com/shop/backend/internal/orders"
	"github.com/shop/backend/internal/postgres"
	"github.com/shop/backend/internal/redisx"
	"github.com/shop/backend/internal/users"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zlog, err := logger.New(cfg.Env, os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		zlog.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer for order.created
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, zlog)
	prod.Start(ctx)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret)
	userRepo := &users.Repo{DB: db}

	router := httpx.NewRouter(zlog)

	// public surface
	(&httpx.AuthHandler{Users: userRepo, Tokens: tokens, Log: zlog}).Register(router)
	(&httpx.ProductsHandler{Catalog: &catalog.Repo{DB: db, Redis: rdb}, Log: zlog}).Register(router)

	// authenticated surface
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokens))
		(&httpx.CartHandler{Cart: &cart.Repo{DB: db}, Log: zlog}).Register(r)
		(&httpx.OrdersHandler{
			Repo:     &orders.Repo{DB: db},
			Producer: prod,
			Redis:    rdb,
			Service:  cfg.ServiceName,
			Log:      zlog,
		}).Register(r)
		(&httpx.UsersHandler{Users: userRepo, Log: zlog}).Register(r)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		zlog.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	zlog.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // close inbox -> flush & close writer
	cancel()          // stop producer loop
	prod.WaitClosed() // drain
}
