package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/satriahrh/parlez/adapters/language"
	"github.com/satriahrh/parlez/adapters/lipsync"
	"github.com/satriahrh/parlez/adapters/tts"
	"github.com/satriahrh/parlez/adapters/zoom"
	"github.com/satriahrh/parlez/domain/repositories"
	"github.com/satriahrh/parlez/internal/api"
	"github.com/satriahrh/parlez/internal/config"
	"github.com/satriahrh/parlez/internal/metrics"
	"github.com/satriahrh/parlez/internal/websocket"
	"github.com/satriahrh/parlez/usecase"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	// Create Echo instance
	e := newEcho()

	// Initialize adapters
	scripts, err := usecase.LoadScripts(cfg.AssetsDir)
	if err != nil {
		logger.Fatal("Failed to load scripted responses", zap.String("assetsDir", cfg.AssetsDir), zap.Error(err))
	}

	languageClient, err := language.NewClient(language.Config{
		BaseURL:      cfg.LanguageServiceURL,
		Timeout:      cfg.LanguageTimeout,
		MaxRetries:   cfg.LanguageMaxRetries,
		RetryBackoff: cfg.LanguageRetryBackoff,
		RatePerMin:   cfg.LanguageRatePerMin,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create language client", zap.Error(err))
	}

	zoomSignal, closeZoom := newZoomSignal(cfg, logger)
	defer closeZoom()

	ffmpeg := lipsync.NewFFmpeg(cfg.FFmpegPath, cfg.ProcessTimeout, logger)
	if !ffmpeg.Available() {
		logger.Warn("ffmpeg not found, chat requests will fail", zap.String("path", cfg.FFmpegPath))
	}
	rhubarb := lipsync.NewRhubarb(cfg.RhubarbPath, cfg.RhubarbRecognizer, cfg.ProcessTimeout, logger)

	deps := usecase.ChatServiceDeps{
		Language:   languageClient,
		Transcoder: ffmpeg,
		Visemes:    rhubarb,
		Zoom:       zoomSignal,
		Scripts:    scripts,
	}
	routeDeps := api.Dependencies{Zoom: zoomSignal}

	if cfg.HasProviderCredentials() {
		textToSpeech, err := tts.NewElevenLabsTTS(tts.ElevenLabsConfig{
			APIKey:       cfg.ElevenLabsAPIKey,
			APIBaseURL:   cfg.ElevenLabsAPIBaseURL,
			VoiceID:      cfg.ElevenLabsVoiceID,
			ModelID:      cfg.ElevenLabsModelID,
			OutputFormat: cfg.ElevenLabsOutputFormat,
			Stability:    cfg.ElevenLabsStability,
			Clarity:      cfg.ElevenLabsClarity,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create text to speech", zap.Error(err))
		}
		deps.TTS = textToSpeech
		routeDeps.Voices = textToSpeech
	} else {
		logger.Warn("ELEVEN_LABS_API_KEY not set, serving scripted responses only")
	}

	// Initialize usecase services
	chatService, err := usecase.NewChatService(deps, usecase.ChatServiceConfig{
		WorkDir:            cfg.WorkDir,
		DefaultLanguage:    cfg.DefaultLanguage,
		KeepArtifacts:      cfg.KeepArtifacts,
		SegmentConcurrency: cfg.SegmentConcurrency,
		HasCredentials:     cfg.HasProviderCredentials(),
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create chat service", zap.Error(err))
	}
	routeDeps.Chat = chatService

	sweeper := usecase.NewArtifactSweeper(cfg.WorkDir, cfg.ArtifactTTL, cfg.SweepInterval, logger)
	sweeper.Start()
	defer sweeper.Stop()

	// Initialize relay hub
	hub := websocket.NewHub(logger)
	go hub.Run()
	routeDeps.Hub = hub

	// Initialize API routes
	api.InitRoutes(e, routeDeps, logger)

	servers := []*echo.Echo{e}
	start(e, cfg.Port, logger)

	if cfg.RelayPort != "0" && cfg.RelayPort != cfg.Port {
		relay := newEcho()
		api.InitRelayRoutes(relay, hub, logger)
		start(relay, cfg.RelayPort, logger)
		servers = append(servers, relay)
	}

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("relayPort", cfg.RelayPort),
		zap.Bool("credentials", cfg.HasProviderCredentials()))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub.Stop()
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server forced to shutdown", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(metrics.Middleware())
	return e
}

func start(e *echo.Echo, port string, logger *zap.Logger) {
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.String("port", port), zap.Error(err))
		}
	}()
}

// newZoomSignal selects the Redis-backed flag when REDIS_ADDR is set
func newZoomSignal(cfg config.Config, logger *zap.Logger) (repositories.ZoomSignal, func()) {
	if cfg.RedisAddr == "" {
		logger.Info("Using in-memory zoom flag")
		return zoom.NewMemory(), func() {}
	}

	flag, err := zoom.NewRedis(zoom.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Key:      cfg.ZoomKey,
	})
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	logger.Info("Using Redis zoom flag", zap.String("addr", cfg.RedisAddr), zap.String("key", cfg.ZoomKey))
	return flag, func() {
		if err := flag.Close(); err != nil {
			logger.Warn("Failed to close Redis", zap.Error(err))
		}
	}
}
