package repositories

import (
	"context"
	"encoding/json"
)

// TextToSpeech synthesizes text into an audio file
type TextToSpeech interface {
	// Synthesize writes the spoken rendition of text to outputPath
	Synthesize(ctx context.Context, text, outputPath string) error
}

// Transcoder converts synthesized audio into the waveform the viseme extractor reads
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string) error
}

// VisemeExtractor produces a timed viseme track from a waveform file
type VisemeExtractor interface {
	// Extract writes the track to outputPath and returns its contents
	Extract(ctx context.Context, waveformPath, outputPath string) (json.RawMessage, error)
}
