package usecase

import (
	"regexp"
	"strings"

	"github.com/satriahrh/parlez/domain/entities"
)

// pronunciationKeywords route an utterance to pronunciation feedback
var pronunciationKeywords = []string{
	"pronunciation",
	"pronounce",
	"speak",
	"sound",
	"accent",
}

// Classify picks the upstream service for an utterance by keyword presence.
// Callers handle empty utterances before classifying.
func Classify(utterance string) entities.Intent {
	if containsAny(strings.ToLower(utterance), pronunciationKeywords) {
		return entities.IntentPronunciationFeedback
	}
	return entities.IntentTranslation
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// paragraphBreak matches one or more blank lines
var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// SplitSegments splits a reply into paragraphs, trimming each and dropping empties
func SplitSegments(text string) []string {
	parts := paragraphBreak.Split(text, -1)
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
