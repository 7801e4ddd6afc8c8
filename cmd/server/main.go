package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/agrovision/potato-api/internal/classifier"
	"github.com/agrovision/potato-api/internal/config"
	"github.com/agrovision/potato-api/internal/handlers"
	"github.com/agrovision/potato-api/internal/storage"
	"github.com/agrovision/potato-api/internal/store"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	if cfg.Log.File == "" {
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(level)
		return zc.Build()
	}

	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    100, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
	})
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		sink,
		level,
	)
	return zap.New(core), nil
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("database ready", zap.String("path", cfg.Database.Path))

	objects, err := storage.NewDisk(cfg.Uploads.Dir, cfg.Uploads.BaseURL)
	if err != nil {
		logger.Fatal("failed to prepare uploads directory", zap.Error(err))
	}

	if cfg.Model.RuntimeLib != "" {
		classifier.SetRuntimeLibrary(cfg.Model.RuntimeLib)
	}
	engine, err := classifier.NewEngine(4)
	if err != nil {
		logger.Fatal("failed to create inference engine", zap.Error(err))
	}
	defer engine.Close()

	pipeline := classifier.NewPipeline(engine, classifier.Config{
		TargetSize: cfg.Model.ImageSize,
		ModelPath:  cfg.Model.Path,
	})

	// Warm the session so the first request does not pay the load cost.
	// A missing model is not fatal here; health reports it and classify
	// requests fail with a clear error until the file appears.
	if _, err := engine.Session(cfg.Model.Path); err != nil {
		logger.Warn("model not available at startup",
			zap.String("path", cfg.Model.Path), zap.Error(err))
	} else {
		logger.Info("model loaded", zap.String("path", cfg.Model.Path))
	}

	handler := handlers.New(pipeline, db, objects, cfg.Model.Path, logger)

	mux := http.NewServeMux()
	handler.Register(mux)
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(objects.Dir()))))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      enableCORS(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
}
