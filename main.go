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

	"github.com/gin-gonic/gin"

	"chatbot/config"
	"chatbot/controllers"
	"chatbot/routes"
	"chatbot/services"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	baseLogger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer baseLogger.Sync() //nolint:errcheck
	logger := baseLogger.Sugar()

	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	store, err := services.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatalw("failed to open exchange store", "backend", cfg.Store.Backend, "error", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warnw("exchange store close error", "error", err)
		}
	}()

	knowledge, err := services.NewKnowledgeService(services.DefaultKnowledge())
	if err != nil {
		logger.Fatalw("failed to build knowledge service", "error", err)
	}

	completer, err := services.NewCompleter(cfg, knowledge.KnowledgeBase())
	if err != nil {
		logger.Fatalw("failed to create completer", "error", err)
	}

	chat := services.NewChatService(knowledge, completer, store, logger)
	router := routes.SetupRouter(controllers.NewChatController(chat, logger), logger)

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Infow("server starting", "addr", server.Addr, "provider", completer.Name(), "store", cfg.Store.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
