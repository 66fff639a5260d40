package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lingostream/internal/config"
	"lingostream/internal/recording"
	"lingostream/internal/server"
	"lingostream/internal/speech"
	"lingostream/internal/storage"
	"lingostream/internal/translate"
	"lingostream/pkg/cache"
	"lingostream/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	debug := os.Getenv("DEBUG") != ""
	if err := logger.Init(debug); err != nil {
		panic("Failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("Starting lingostream server")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Translator chain: LLM engine, optionally fronted by a redis cache.
	var translator translate.Translator = translate.NewLLMTranslator(
		cfg.Translator.URL,
		cfg.Translator.APIKey,
		cfg.Translator.Model,
		cfg.Translator.TargetLang,
	)

	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(
			cfg.Redis.Addr,
			cfg.Redis.Password,
			cfg.Redis.DB,
		)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisCache.Close()

		translator = translate.NewCachedTranslator(translator, redisCache, 24*time.Hour)
		logger.Info("Translation cache enabled")
	}

	backend := translate.NewBackend(translator, cfg.Translator.MaxAttempts)

	engines := func(listener speech.Listener) (speech.Engine, error) {
		return speech.NewRealtimeEngine(speech.RealtimeConfig{
			URL:        cfg.Speech.URL,
			APIKey:     cfg.Speech.APIKey,
			SampleRate: cfg.Speech.SampleRate,
		}, websocket.DefaultDialer, listener)
	}

	recorders, err := buildRecorderFactory(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize recording backend", zap.Error(err))
	}

	srv := server.New(cfg.Server.Addr, cfg.Server.StaticDir, backend, engines, recorders)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}

	logger.Info("Server shutdown complete")
}

func buildRecorderFactory(cfg *config.Config) (server.RecorderFactory, error) {
	if !cfg.Recording.Enabled {
		return func(string) (recording.Recorder, error) {
			return recording.NopRecorder{}, nil
		}, nil
	}

	if cfg.Recording.Backend == "s3" {
		store, err := storage.NewS3Storage(storage.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
		})
		if err != nil {
			return nil, err
		}
		return func(connectionID string) (recording.Recorder, error) {
			return recording.NewS3Recorder(store, connectionID), nil
		}, nil
	}

	baseDir := cfg.Recording.Dir
	return func(connectionID string) (recording.Recorder, error) {
		return recording.NewDiskRecorder(baseDir, connectionID)
	}, nil
}
