package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/satriahrh/parlez/adapters/tts"
	"github.com/satriahrh/parlez/domain/entities"
	"github.com/satriahrh/parlez/domain/repositories"
	"github.com/satriahrh/parlez/internal/metrics"
	"github.com/satriahrh/parlez/internal/websocket"
	"github.com/satriahrh/parlez/usecase"
)

// ChatHandler produces avatar messages
type ChatHandler interface {
	HandleChat(ctx context.Context, req usecase.ChatRequest) ([]entities.Message, error)
	HandleFollowup(ctx context.Context, prev string) (entities.Message, error)
}

// VoiceLister lists the voices offered by the speech provider
type VoiceLister interface {
	GetAvailableVoices(ctx context.Context) ([]tts.Voice, error)
}

// Dependencies are the services behind the HTTP surface.
// Voices may be nil when no provider is configured.
type Dependencies struct {
	Chat   ChatHandler
	Zoom   repositories.ZoomSignal
	Voices VoiceLister
	Hub    *websocket.Hub
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, deps Dependencies, logger *zap.Logger) {
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Hello World!")
	})

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "avatar-server",
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/chat", func(c echo.Context) error {
		return chat(c, deps.Chat, logger)
	})
	e.POST("/followup", func(c echo.Context) error {
		return followup(c, deps.Chat, logger)
	})

	e.POST("/zoom", func(c echo.Context) error {
		return setZoom(c, deps.Zoom, logger)
	})
	e.GET("/should-zoom", func(c echo.Context) error {
		return shouldZoom(c, deps.Zoom, logger)
	})

	e.GET("/voices", func(c echo.Context) error {
		return voices(c, deps.Voices, logger)
	})

	if deps.Hub != nil {
		InitRelayRoutes(e, deps.Hub, logger)
	}
}

// InitRelayRoutes mounts only the broadcast relay
func InitRelayRoutes(e *echo.Echo, hub *websocket.Hub, logger *zap.Logger) {
	e.GET("/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(hub, c, logger)
	})
}

func chat(c echo.Context, svc ChatHandler, logger *zap.Logger) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		logger.Warn("Failed to bind chat request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	messages, err := svc.HandleChat(c.Request().Context(), usecase.ChatRequest{
		Message:  req.Message,
		Language: req.Language,
	})
	if err != nil {
		logger.Error("Chat failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "chat_failed",
			Message: "Failed to generate a response",
		})
	}

	return c.JSON(http.StatusOK, ChatResponse{Messages: messages})
}

func followup(c echo.Context, svc ChatHandler, logger *zap.Logger) error {
	var req FollowupRequest
	if err := c.Bind(&req); err != nil {
		logger.Warn("Failed to bind followup request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	message, err := svc.HandleFollowup(c.Request().Context(), req.Prev)
	if errors.Is(err, entities.ErrEmptyText) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "prev is required",
		})
	}
	if err != nil {
		logger.Error("Followup failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "chat_failed",
			Message: "Failed to generate a response",
		})
	}

	return c.JSON(http.StatusOK, FollowupResponse{Message: message})
}

func setZoom(c echo.Context, zoom repositories.ZoomSignal, logger *zap.Logger) error {
	if err := zoom.Set(c.Request().Context()); err != nil {
		logger.Error("Failed to set zoom flag", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "zoom_failed",
			Message: "Failed to set zoom flag",
		})
	}
	metrics.ZoomSignals.WithLabelValues("set").Inc()
	return c.JSON(http.StatusOK, ZoomResponse{Success: true})
}

func shouldZoom(c echo.Context, zoom repositories.ZoomSignal, logger *zap.Logger) error {
	value, err := zoom.PollAndReset(c.Request().Context())
	if err != nil {
		logger.Error("Failed to poll zoom flag", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "zoom_failed",
			Message: "Failed to read zoom flag",
		})
	}
	if value {
		metrics.ZoomSignals.WithLabelValues("observed").Inc()
	}
	return c.JSON(http.StatusOK, ShouldZoomResponse{ShouldZoom: value})
}

func voices(c echo.Context, lister VoiceLister, logger *zap.Logger) error {
	if lister == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "voices_unavailable",
			Message: "No speech provider configured",
		})
	}

	list, err := lister.GetAvailableVoices(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list voices", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "voices_failed",
			Message: "Failed to list voices",
		})
	}
	return c.JSON(http.StatusOK, list)
}
