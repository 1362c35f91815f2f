package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/satriahrh/parlez/domain/entities"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		utterance string
		want      entities.Intent
	}{
		{"How do I pronounce this?", entities.IntentPronunciationFeedback},
		{"Translate good morning", entities.IntentTranslation},
		{"Check my PRONUNCIATION please", entities.IntentPronunciationFeedback},
		{"How does my accent sound?", entities.IntentPronunciationFeedback},
		{"Can you help me speak French", entities.IntentPronunciationFeedback},
		{"What is the word for cheese", entities.IntentTranslation},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.utterance))
			assert.Equal(t, tt.want, Classify(tt.utterance), "classification must be deterministic")
		})
	}
}

func TestSplitSegments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "two paragraphs",
			in:   "Bonjour.\n\nComment allez-vous?",
			want: []string{"Bonjour.", "Comment allez-vous?"},
		},
		{
			name: "several blank lines with whitespace",
			in:   "  In French you say:\n \n\t\n\"Bonjour\"  \n\n\nIt means good morning.\n",
			want: []string{"In French you say:", "\"Bonjour\"", "It means good morning."},
		},
		{
			name: "single newline stays in one segment",
			in:   "Line one\nline two",
			want: []string{"Line one\nline two"},
		},
		{
			name: "leading and trailing breaks",
			in:   "\n\nSalut\n\n",
			want: []string{"Salut"},
		},
		{
			name: "blank",
			in:   "  \n\n  ",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSegments(tt.in))
		})
	}
}
