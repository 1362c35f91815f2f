package lipsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/parlez/domain/entities"
	"github.com/satriahrh/parlez/domain/repositories"
)

// Rhubarb extracts mouth cues from a wav file with Rhubarb Lip Sync
type Rhubarb struct {
	binary     string
	recognizer string
	timeout    time.Duration
	logger     *zap.Logger
}

var _ repositories.VisemeExtractor = (*Rhubarb)(nil)

// NewRhubarb creates an extractor. The phonetic recognizer is faster but less accurate.
func NewRhubarb(binary, recognizer string, timeout time.Duration, logger *zap.Logger) *Rhubarb {
	if binary == "" {
		binary = "./bin/rhubarb"
	}
	if recognizer == "" {
		recognizer = "phonetic"
	}
	if timeout <= 0 {
		timeout = defaultProcessTimeout
	}
	return &Rhubarb{binary: binary, recognizer: recognizer, timeout: timeout, logger: logger}
}

// Extract runs rhubarb on waveformPath, writing JSON to outputPath, and returns the track
func (r *Rhubarb) Extract(ctx context.Context, waveformPath, outputPath string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, r.binary,
		"-f", "json",
		"-o", outputPath,
		waveformPath,
		"-r", r.recognizer,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", entities.ErrVisemeExtraction, r.timeout)
		}
		return nil, fmt.Errorf("%w: %v\n%s", entities.ErrVisemeExtraction, err, tail(out))
	}

	track, err := ReadTrack(outputPath)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Lip sync done",
		zap.String("waveform", waveformPath),
		zap.Duration("elapsed", time.Since(start)))
	return track, nil
}

// ReadTrack loads a viseme track file, requiring it to hold non-empty JSON
func ReadTrack(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read track: %v", entities.ErrVisemeExtraction, err)
	}
	if len(data) == 0 || !json.Valid(data) {
		return nil, fmt.Errorf("%w: track %s is not valid JSON", entities.ErrVisemeExtraction, path)
	}
	return json.RawMessage(data), nil
}
