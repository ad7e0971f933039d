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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"littlelemon/internal/apierr"
	"littlelemon/internal/config"
	"littlelemon/internal/es"
	"littlelemon/internal/handlers"
	"littlelemon/internal/handlers/cart"
	"littlelemon/internal/handlers/order"
	"littlelemon/internal/logging"
	loggingmw "littlelemon/internal/middleware/logging"
	"littlelemon/internal/mykafka"
	"littlelemon/internal/service/token"
	httpserver "littlelemon/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	var producer *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	} else {
		logger.Warn("KAFKA_ADDRESS not set, event publishing disabled")
	}

	var searchHandler *handlers.SearchHandler
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		searchHandler = &handlers.SearchHandler{ES: esClient, Index: "menu-items"}
	} else {
		logger.Warn("ES_URL not set, search disabled")
	}

	tokens := &token.Service{
		DB:            db,
		JWTSecret:     []byte(configuration.JWT_SECRET),
		RefreshSecret: []byte(configuration.REFRESH_SECRET),
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apierr.HTTPErrorHandler
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		Tokens:     tokens,
		Auth:       &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: producer},
		Menu:       &handlers.MenuHandler{DB: db, Producer: producer},
		Categories: &handlers.CategoryHandler{DB: db, Producer: producer},
		Groups:     &handlers.GroupHandler{DB: db},
		Books:      &handlers.BookHandler{DB: db},
		Search:     searchHandler,
		Cart:       &cart.Handler{DB: db, Producer: producer},
		Orders:     &order.Handler{DB: db, Producer: producer},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
