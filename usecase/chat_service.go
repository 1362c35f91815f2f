package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/satriahrh/parlez/domain/entities"
	"github.com/satriahrh/parlez/domain/repositories"
	"github.com/satriahrh/parlez/internal/metrics"
	"github.com/satriahrh/parlez/internal/saga"
)

// ChatRequest is one inbound utterance
type ChatRequest struct {
	Message  string
	Language string
}

// ChatServiceConfig tunes the response pipeline
type ChatServiceConfig struct {
	WorkDir            string
	DefaultLanguage    string
	KeepArtifacts      bool
	SegmentConcurrency int
	StageTimeout       time.Duration
	HasCredentials     bool
}

// ChatServiceDeps are the collaborators of the response pipeline
type ChatServiceDeps struct {
	Language   repositories.LanguageService
	TTS        repositories.TextToSpeech
	Transcoder repositories.Transcoder
	Visemes    repositories.VisemeExtractor
	Zoom       repositories.ZoomSignal
	Scripts    *ScriptLibrary
}

// ChatService turns utterances into ordered lists of avatar messages
type ChatService struct {
	deps   ChatServiceDeps
	config ChatServiceConfig
	sagas  *saga.Manager
	logger *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(deps ChatServiceDeps, config ChatServiceConfig, logger *zap.Logger) (*ChatService, error) {
	if deps.Scripts == nil {
		return nil, fmt.Errorf("script library is required")
	}
	if config.HasCredentials && (deps.Language == nil || deps.TTS == nil || deps.Transcoder == nil || deps.Visemes == nil) {
		return nil, fmt.Errorf("language, tts, transcoder and viseme collaborators are required")
	}
	if deps.Zoom == nil {
		return nil, fmt.Errorf("zoom signal is required")
	}
	if config.WorkDir == "" {
		config.WorkDir = os.TempDir()
	}
	if config.SegmentConcurrency < 1 {
		config.SegmentConcurrency = 1
	}

	return &ChatService{
		deps:   deps,
		config: config,
		sagas:  saga.NewManager(logger, observeStage),
		logger: logger,
	}, nil
}

func observeStage(_ saga.SagaID, exec saga.StepExecution) {
	metrics.StageDuration.WithLabelValues(string(exec.ID), string(exec.State)).Observe(exec.Duration.Seconds())
}

// HandleChat produces the avatar messages for one utterance, in segment order.
// Any segment failure fails the whole response.
func (s *ChatService) HandleChat(ctx context.Context, req ChatRequest) ([]entities.Message, error) {
	if strings.TrimSpace(req.Message) == "" {
		metrics.ChatResponses.WithLabelValues(string(entities.ScenarioGreeting), "scripted").Inc()
		return s.deps.Scripts.Messages(entities.ScenarioGreeting), nil
	}
	if !s.config.HasCredentials {
		s.logger.Warn("Provider credentials missing, returning scripted response")
		metrics.ChatResponses.WithLabelValues(string(entities.ScenarioMissingCredentials), "scripted").Inc()
		return s.deps.Scripts.Messages(entities.ScenarioMissingCredentials), nil
	}

	language := req.Language
	if language == "" {
		language = s.config.DefaultLanguage
	}

	intent := Classify(req.Message)
	messages, err := s.respond(ctx, intent, req.Message, language)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.ChatResponses.WithLabelValues(string(intent), outcome).Inc()
	return messages, err
}

func (s *ChatService) respond(ctx context.Context, intent entities.Intent, utterance, language string) ([]entities.Message, error) {
	segments, err := s.fetchSegments(ctx, intent, utterance, language)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments in reply", entities.ErrUpstreamMalformed)
	}

	requestID := uuid.NewString()
	logger := s.logger.With(zap.String("requestID", requestID), zap.String("intent", string(intent)))
	logger.Info("Processing chat", zap.Int("segments", len(segments)))

	if err := s.deps.Zoom.Set(ctx); err != nil {
		logger.Warn("Failed to set zoom flag", zap.Error(err))
	} else {
		metrics.ZoomSignals.WithLabelValues("set").Inc()
	}

	return s.renderSegments(ctx, requestID, segments, logger)
}

func (s *ChatService) fetchSegments(ctx context.Context, intent entities.Intent, utterance, language string) ([]string, error) {
	switch intent {
	case entities.IntentPronunciationFeedback:
		return s.deps.Language.Pronunciation(ctx, utterance, language)
	default:
		reply, err := s.deps.Language.Translate(ctx, utterance, language)
		if err != nil {
			return nil, err
		}
		return SplitSegments(reply), nil
	}
}

// HandleFollowup produces a single message continuing from prev
func (s *ChatService) HandleFollowup(ctx context.Context, prev string) (entities.Message, error) {
	if strings.TrimSpace(prev) == "" {
		return entities.Message{}, entities.ErrEmptyText
	}
	if !s.config.HasCredentials {
		metrics.ChatResponses.WithLabelValues(string(entities.ScenarioMissingCredentials), "scripted").Inc()
		scripted := s.deps.Scripts.Messages(entities.ScenarioMissingCredentials)
		if len(scripted) == 0 {
			return entities.Message{}, fmt.Errorf("no scripted response for %s", entities.ScenarioMissingCredentials)
		}
		return scripted[0], nil
	}

	message, err := s.followup(ctx, prev)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.ChatResponses.WithLabelValues("followup", outcome).Inc()
	return message, err
}

func (s *ChatService) followup(ctx context.Context, prev string) (entities.Message, error) {
	reply, err := s.deps.Language.Followup(ctx, prev)
	if err != nil {
		return entities.Message{}, err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return entities.Message{}, fmt.Errorf("%w: empty follow-up reply", entities.ErrUpstreamMalformed)
	}

	requestID := uuid.NewString()
	logger := s.logger.With(zap.String("requestID", requestID), zap.String("intent", "followup"))

	messages, err := s.renderSegments(ctx, requestID, []string{reply}, logger)
	if err != nil {
		return entities.Message{}, err
	}
	return messages[0], nil
}

// renderSegments runs synthesize, transcode and extract for every segment.
// Results are placed by index so output order never depends on completion order.
func (s *ChatService) renderSegments(ctx context.Context, requestID string, segments []string, logger *zap.Logger) ([]entities.Message, error) {
	dir := filepath.Join(s.config.WorkDir, requestID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	if !s.config.KeepArtifacts {
		defer func() {
			if err := os.RemoveAll(dir); err != nil {
				logger.Warn("Failed to remove artifacts", zap.String("dir", dir), zap.Error(err))
			}
		}()
	}

	start := time.Now()
	messages := make([]entities.Message, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.SegmentConcurrency)
	for i, text := range segments {
		g.Go(func() error {
			message, err := s.renderSegment(gctx, requestID, dir, i, text)
			if err != nil {
				return fmt.Errorf("segment %d: %w", i, err)
			}
			messages[i] = message
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Chat processing failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, err
	}

	logger.Info("Chat processed",
		zap.Int("messages", len(messages)),
		zap.Duration("elapsed", time.Since(start)))
	return messages, nil
}

func (s *ChatService) renderSegment(ctx context.Context, requestID, dir string, index int, text string) (entities.Message, error) {
	data := newSegmentData(dir, index, text)
	steps := []saga.Step{
		&synthesizeStep{tts: s.deps.TTS, timeout: s.config.StageTimeout},
		&transcodeStep{transcoder: s.deps.Transcoder, timeout: s.config.StageTimeout},
		&extractStep{extractor: s.deps.Visemes, timeout: s.config.StageTimeout},
	}

	sagaID := saga.SagaID(fmt.Sprintf("%s/%d", requestID, index))
	if _, err := s.sagas.Run(ctx, sagaID, steps, data); err != nil {
		return entities.Message{}, err
	}

	audio, err := os.ReadFile(dataString(data, keyAudioPath))
	if err != nil {
		return entities.Message{}, fmt.Errorf("%w: read audio: %v", entities.ErrSynthesis, err)
	}

	message := entities.NewSegmentMessage(text)
	message.Audio = base64.StdEncoding.EncodeToString(audio)
	message.LipSync = trackFrom(data)
	return message, nil
}
