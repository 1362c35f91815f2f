// Command example renders one line of text into <name>.mp3, <name>.wav and
// <name>.json. It is how the scripted greeting and credentials assets are produced.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/parlez/adapters/lipsync"
	"github.com/satriahrh/parlez/adapters/tts"
	"github.com/satriahrh/parlez/internal/config"
)

func main() {
	cfg := config.Load()

	name := flag.String("name", "intro_0", "artifact base name")
	out := flag.String("out", cfg.AssetsDir, "output directory")
	flag.Parse()

	// Create logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	text := strings.Join(flag.Args(), " ")
	if text == "" {
		text = "Hey! How waas your day."
	}

	// Check if API key is set
	if !cfg.HasProviderCredentials() {
		logger.Fatal("ELEVEN_LABS_API_KEY environment variable is required")
	}

	ttsService, err := tts.NewElevenLabsTTS(tts.ElevenLabsConfig{
		APIKey:       cfg.ElevenLabsAPIKey,
		APIBaseURL:   cfg.ElevenLabsAPIBaseURL,
		VoiceID:      cfg.ElevenLabsVoiceID,
		ModelID:      cfg.ElevenLabsModelID,
		OutputFormat: cfg.ElevenLabsOutputFormat,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create TTS service", zap.Error(err))
	}
	ffmpeg := lipsync.NewFFmpeg(cfg.FFmpegPath, cfg.ProcessTimeout, logger)
	rhubarb := lipsync.NewRhubarb(cfg.RhubarbPath, cfg.RhubarbRecognizer, cfg.ProcessTimeout, logger)

	if err := os.MkdirAll(*out, 0o755); err != nil {
		logger.Fatal("Failed to create output directory", zap.Error(err))
	}
	base := filepath.Join(*out, *name)

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logger.Info("Rendering", zap.String("text", text), zap.String("base", base))

	if err := ttsService.Synthesize(ctx, text, base+".mp3"); err != nil {
		logger.Fatal("Failed to convert text to speech", zap.Error(err))
	}
	if err := ffmpeg.Transcode(ctx, base+".mp3", base+".wav"); err != nil {
		logger.Fatal("Failed to transcode", zap.Error(err))
	}
	track, err := rhubarb.Extract(ctx, base+".wav", base+".json")
	if err != nil {
		logger.Fatal("Failed to extract visemes", zap.Error(err))
	}

	logger.Info("Rendered", zap.String("base", base), zap.Int("trackBytes", len(track)))
}
