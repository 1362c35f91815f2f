package entities

import (
	"encoding/json"
	"errors"
)

// Intent is the classification of a user utterance
type Intent string

const (
	IntentTranslation           Intent = "translation"
	IntentPronunciationFeedback Intent = "pronunciation_feedback"
)

// Scenario tags a pre-rendered scripted response
type Scenario string

const (
	ScenarioGreeting           Scenario = "greeting"
	ScenarioMissingCredentials Scenario = "missing-credentials"
)

// Facial expressions understood by the avatar client
const (
	ExpressionSmile = "smile"
	ExpressionSad   = "sad"
	ExpressionAngry = "angry"
)

// Animations understood by the avatar client
const (
	AnimationTalking1 = "Talking_1"
	AnimationCrying   = "Crying"
	AnimationAngry    = "Angry"
	AnimationLaughing = "Laughing"
)

// LipSync is the viseme track produced by the extractor.
// The pipeline never looks inside it.
type LipSync = json.RawMessage

// Message is one spoken unit of an avatar response
type Message struct {
	Text             string  `json:"text"`
	Audio            string  `json:"audio"` // base64 encoded
	LipSync          LipSync `json:"lipsync"`
	FacialExpression string  `json:"facialExpression"`
	Animation        string  `json:"animation"`
}

// NewSegmentMessage creates the text-only first phase of a segment message
func NewSegmentMessage(text string) Message {
	return Message{
		Text:             text,
		FacialExpression: ExpressionSmile,
		Animation:        AnimationTalking1,
	}
}

// HasMedia reports whether both audio and lip-sync data are attached
func (m *Message) HasMedia() bool {
	return m.Audio != "" && len(m.LipSync) > 0
}

// Pipeline failures
var (
	ErrUpstream          = errors.New("language service request failed")
	ErrUpstreamMalformed = errors.New("language service returned a malformed payload")
	ErrSynthesis         = errors.New("speech synthesis failed")
	ErrTranscode         = errors.New("audio transcoding failed")
	ErrVisemeExtraction  = errors.New("viseme extraction failed")
	ErrEmptyText         = errors.New("text cannot be empty")
)
