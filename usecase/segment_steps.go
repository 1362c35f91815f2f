package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/satriahrh/parlez/domain/repositories"
	"github.com/satriahrh/parlez/internal/saga"
)

// Keys shared by the segment steps through saga.SagaData
const (
	keyText      = "text"
	keyAudioPath = "audioPath"
	keyWavePath  = "wavePath"
	keyTrackPath = "trackPath"
	keyTrack     = "track"
)

// Step IDs, also used as the stage metric label
const (
	StepSynthesize saga.StepID = "synthesize"
	StepTranscode  saga.StepID = "transcode"
	StepExtract    saga.StepID = "extract"
)

// newSegmentData lays out the artifact paths for segment index in dir
func newSegmentData(dir string, index int, text string) saga.SagaData {
	base := filepath.Join(dir, fmt.Sprintf("message_%d", index))
	return saga.SagaData{
		keyText:      text,
		keyAudioPath: base + ".mp3",
		keyWavePath:  base + ".wav",
		keyTrackPath: base + ".json",
	}
}

func dataString(data saga.SagaData, key string) string {
	s, _ := data[key].(string)
	return s
}

// removeArtifact deletes a step output, ignoring files that were never written
func removeArtifact(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

type synthesizeStep struct {
	tts     repositories.TextToSpeech
	timeout time.Duration
}

func (s *synthesizeStep) ID() saga.StepID { return StepSynthesize }
func (s *synthesizeStep) Timeout() time.Duration { return s.timeout }

func (s *synthesizeStep) Execute(ctx context.Context, data saga.SagaData) error {
	return s.tts.Synthesize(ctx, dataString(data, keyText), dataString(data, keyAudioPath))
}

func (s *synthesizeStep) Compensate(ctx context.Context, data saga.SagaData) error {
	return removeArtifact(dataString(data, keyAudioPath))
}

type transcodeStep struct {
	transcoder repositories.Transcoder
	timeout    time.Duration
}

func (s *transcodeStep) ID() saga.StepID { return StepTranscode }
func (s *transcodeStep) Timeout() time.Duration { return s.timeout }

func (s *transcodeStep) Execute(ctx context.Context, data saga.SagaData) error {
	return s.transcoder.Transcode(ctx, dataString(data, keyAudioPath), dataString(data, keyWavePath))
}

func (s *transcodeStep) Compensate(ctx context.Context, data saga.SagaData) error {
	return removeArtifact(dataString(data, keyWavePath))
}

type extractStep struct {
	extractor repositories.VisemeExtractor
	timeout   time.Duration
}

func (s *extractStep) ID() saga.StepID { return StepExtract }
func (s *extractStep) Timeout() time.Duration { return s.timeout }

func (s *extractStep) Execute(ctx context.Context, data saga.SagaData) error {
	track, err := s.extractor.Extract(ctx, dataString(data, keyWavePath), dataString(data, keyTrackPath))
	if err != nil {
		return err
	}
	data[keyTrack] = track
	return nil
}

func (s *extractStep) Compensate(ctx context.Context, data saga.SagaData) error {
	delete(data, keyTrack)
	return removeArtifact(dataString(data, keyTrackPath))
}

var (
	_ saga.TimedStep = (*synthesizeStep)(nil)
	_ saga.TimedStep = (*transcodeStep)(nil)
	_ saga.TimedStep = (*extractStep)(nil)
)

func trackFrom(data saga.SagaData) json.RawMessage {
	track, _ := data[keyTrack].(json.RawMessage)
	return track
}
