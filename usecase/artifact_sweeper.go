package usecase

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// ArtifactSweeper periodically removes request directories older than a TTL
// from the work directory. Kept or interrupted request directories otherwise
// accumulate forever.
type ArtifactSweeper struct {
	workDir  string
	ttl      time.Duration
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	now      func() time.Time
}

// NewArtifactSweeper creates a new artifact sweeper
func NewArtifactSweeper(workDir string, ttl, interval time.Duration, logger *zap.Logger) *ArtifactSweeper {
	return &ArtifactSweeper{
		workDir:  workDir,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

// Start begins the background sweep
func (s *ArtifactSweeper) Start() {
	go s.sweepLoop()
	s.logger.Info("Artifact sweeper started",
		zap.String("workDir", s.workDir),
		zap.Duration("ttl", s.ttl))
}

// Stop gracefully stops the sweeper
func (s *ArtifactSweeper) Stop() {
	close(s.stopChan)
	s.logger.Info("Artifact sweeper stopped")
}

func (s *ArtifactSweeper) sweepLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep removes expired request directories and returns how many were removed
func (s *ArtifactSweeper) Sweep() int {
	entries, err := os.ReadDir(s.workDir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("Failed to list work dir", zap.String("workDir", s.workDir), zap.Error(err))
		}
		return 0
	}

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.workDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			s.logger.Warn("Failed to remove expired artifacts", zap.String("dir", path), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("Expired artifacts removed", zap.Int("count", removed))
	}
	return removed
}
