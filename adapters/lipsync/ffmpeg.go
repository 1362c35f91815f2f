package lipsync

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/parlez/domain/entities"
	"github.com/satriahrh/parlez/domain/repositories"
)

const defaultProcessTimeout = 60 * time.Second

// FFmpeg transcodes synthesized audio into PCM wav for the viseme extractor
type FFmpeg struct {
	binary  string
	timeout time.Duration
	logger  *zap.Logger
}

var _ repositories.Transcoder = (*FFmpeg)(nil)

// NewFFmpeg creates a transcoder invoking binary (looked up on PATH when bare)
func NewFFmpeg(binary string, timeout time.Duration, logger *zap.Logger) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = defaultProcessTimeout
	}
	return &FFmpeg{binary: binary, timeout: timeout, logger: logger}
}

// Available returns true if the ffmpeg binary can be resolved
func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath(f.binary)
	return err == nil
}

// Transcode converts inputPath to a wav file at outputPath, overwriting it
func (f *FFmpeg) Transcode(ctx context.Context, inputPath, outputPath string) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, f.binary, "-y", "-i", inputPath, outputPath)

	if out, err := cmd.CombinedOutput(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: timed out after %s", entities.ErrTranscode, f.timeout)
		}
		return fmt.Errorf("%w: %v\n%s", entities.ErrTranscode, err, tail(out))
	}

	f.logger.Info("Conversion done",
		zap.String("input", inputPath),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// tail keeps the end of noisy process output for error messages
func tail(out []byte) string {
	const limit = 1024
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return string(out)
}
