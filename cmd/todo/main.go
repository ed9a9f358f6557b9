package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo/internal/config"
	"todo/internal/server"
	"todo/internal/storage"
	"todo/internal/storage/memory"
	"todo/internal/storage/sqlite"
	"todo/internal/util"
)

func main() {
	configFlag := flag.String("config", util.EnvOrDefault("TODO_CONFIG", "todo.toml"), "Path to TOML config file")
	addrFlag := flag.String("addr", util.EnvOrDefault("TODO_ADDR", ""), "HTTP listen address")
	dbFlag := flag.String("db", util.EnvOrDefault("TODO_DB_PATH", ""), "Path to sqlite database file, or 'memory:' for no persistence")
	staticFlag := flag.String("static", util.EnvOrDefault("TODO_STATIC_DIR", ""), "Directory with built frontend")
	logFlag := flag.String("log-level", util.EnvOrDefault("TODO_LOG_LEVEL", ""), "Log level (debug, info, warn, error)")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		slog.Error("unable to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Flags and env beat the config file.
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}
	if *dbFlag != "" {
		cfg.DBPath = *dbFlag
	}
	if *staticFlag != "" {
		cfg.StaticDir = *staticFlag
	}
	if *logFlag != "" {
		cfg.LogLevel = *logFlag
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	var store storage.Gateway
	if cfg.DBPath == config.MemoryDBPath {
		logger.Info("using in-memory store; nothing will be persisted")
		store = memory.New()
	} else {
		st, err := sqlite.Open(cfg.DBPath, logger)
		if err != nil {
			logger.Error("unable to open database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer st.Close()
		store = st
	}

	srv, err := server.New(store, logger, cfg.StaticDir)
	if err != nil {
		logger.Error("unable to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
