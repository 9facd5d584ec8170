package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/handler"
	"github.com/RoyceAzure/lab/storefront/internal/api/router"
	"github.com/RoyceAzure/lab/storefront/internal/appcontext"
	"github.com/RoyceAzure/lab/storefront/internal/config"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	app, err := appcontext.NewApplicationContext(config.GetConfig())
	if err != nil {
		log.Fatal(err)
		return
	}
	logger := app.Logger

	// 初始化 handler
	server := api.NewServer(
		handler.NewAuthHandler(app.AuthService, app.UserService),
		handler.NewProductHandler(app.ProductService),
		handler.NewCartHandler(app.CartService, app.OrderService, app.Calculator),
		handler.NewWishlistHandler(app.WishlistService),
		handler.NewOrderHandler(app.OrderService),
		handler.NewPaymentHandler(app.PaymentService),
		handler.NewHealthHandler(app.HealthChecks()),
	)

	// 設置路由
	r := router.SetupRouter(server, router.Options{
		TokenMaker:     app.TokenMaker,
		Limiter:        app.Limiter,
		Logger:         &logger,
		AllowedOrigins: app.AllowedOrigins(),
	})
	if err := router.PrintRoutes(r, &logger); err != nil {
		logger.Warn().Err(err).Msg("failed to walk routes")
	}

	// 設定服務器參數
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", app.Cf.ServerPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 設置訊號監聽
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 監聽退出訊號，或 server 啟動失敗
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info().Msg("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Server shutdown error")
		}
		if err := app.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Application shutdown error")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	log.Printf("closed completed")
}
