package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process configuration read from the environment
type Config struct {
	Port      string
	RelayPort string
	Env       string

	// Text-to-speech provider
	ElevenLabsAPIKey       string
	ElevenLabsAPIBaseURL   string
	ElevenLabsVoiceID      string
	ElevenLabsModelID      string
	ElevenLabsOutputFormat string
	ElevenLabsStability    float64
	ElevenLabsClarity      float64

	// Upstream language service
	LanguageServiceURL   string
	DefaultLanguage      string
	LanguageTimeout      time.Duration
	LanguageMaxRetries   int
	LanguageRetryBackoff time.Duration
	LanguageRatePerMin   int

	// External processes
	FFmpegPath        string
	RhubarbPath       string
	RhubarbRecognizer string
	ProcessTimeout    time.Duration

	// Artifacts
	WorkDir            string
	AssetsDir          string
	KeepArtifacts      bool
	SegmentConcurrency int
	ArtifactTTL        time.Duration
	SweepInterval      time.Duration

	// Zoom flag backend; empty RedisAddr keeps the flag in memory
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ZoomKey       string
}

// Load reads .env (if present) and the environment
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Port:      getEnvDefault("PORT", "3000"),
		RelayPort: getEnvDefault("RELAY_PORT", "8081"),
		Env:       getEnvDefault("APP_ENV", "production"),

		ElevenLabsAPIKey:       os.Getenv("ELEVEN_LABS_API_KEY"),
		ElevenLabsAPIBaseURL:   os.Getenv("ELEVEN_LABS_API_BASE_URL"),
		ElevenLabsVoiceID:      getEnvDefault("ELEVEN_LABS_VOICE_ID", "9BWtsMINqrJLrRacOk9x"),
		ElevenLabsModelID:      getEnvDefault("ELEVEN_LABS_MODEL_ID", "eleven_multilingual_v2"),
		ElevenLabsOutputFormat: getEnvDefault("ELEVEN_LABS_OUTPUT_FORMAT", "mp3_44100_128"),
		ElevenLabsStability:    getEnvFloatDefault("ELEVEN_LABS_STABILITY", 0),
		ElevenLabsClarity:      getEnvFloatDefault("ELEVEN_LABS_CLARITY", 0),

		LanguageServiceURL:   getEnvDefault("LANGUAGE_SERVICE_URL", "http://0.0.0.0:8000"),
		DefaultLanguage:      getEnvDefault("LANGUAGE_DEFAULT", "French"),
		LanguageTimeout:      getEnvDurationDefault("LANGUAGE_TIMEOUT", 30*time.Second),
		LanguageMaxRetries:   getEnvIntDefault("LANGUAGE_MAX_RETRIES", 2),
		LanguageRetryBackoff: getEnvDurationDefault("LANGUAGE_RETRY_BACKOFF", 500*time.Millisecond),
		LanguageRatePerMin:   getEnvIntDefault("LANGUAGE_RATE_PER_MINUTE", 0),

		FFmpegPath:        getEnvDefault("FFMPEG_PATH", "ffmpeg"),
		RhubarbPath:       getEnvDefault("RHUBARB_PATH", "./bin/rhubarb"),
		RhubarbRecognizer: getEnvDefault("RHUBARB_RECOGNIZER", "phonetic"),
		ProcessTimeout:    getEnvDurationDefault("PROCESS_TIMEOUT", 60*time.Second),

		WorkDir:            getEnvDefault("WORK_DIR", "audios/work"),
		AssetsDir:          getEnvDefault("ASSETS_DIR", "audios"),
		KeepArtifacts:      getEnvBoolDefault("KEEP_ARTIFACTS", false),
		SegmentConcurrency: getEnvIntDefault("SEGMENT_CONCURRENCY", 1),
		ArtifactTTL:        getEnvDurationDefault("ARTIFACT_TTL", time.Hour),
		SweepInterval:      getEnvDurationDefault("ARTIFACT_SWEEP_INTERVAL", 10*time.Minute),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvIntDefault("REDIS_DB", 0),
		ZoomKey:       getEnvDefault("ZOOM_KEY", "avatar:zoom"),
	}
}

// HasProviderCredentials reports whether the speech provider can be called
func (c Config) HasProviderCredentials() bool {
	return strings.TrimSpace(c.ElevenLabsAPIKey) != ""
}

// IsDevelopment reports whether development logging should be used
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloatDefault(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}
