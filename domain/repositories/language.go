package repositories

import "context"

// LanguageService abstracts the upstream translation/pronunciation service
type LanguageService interface {
	// Translate returns the raw multi-paragraph translation reply
	Translate(ctx context.Context, prompt, language string) (string, error)
	// Pronunciation returns feedback already split into segments
	Pronunciation(ctx context.Context, phoneme, language string) ([]string, error)
	// Followup returns a single follow-up reply for the previous message
	Followup(ctx context.Context, prev string) (string, error)
}
