package api

import "github.com/satriahrh/parlez/domain/entities"

// ChatRequest represents the request payload for POST /chat.
// A missing message selects the scripted greeting.
type ChatRequest struct {
	Message  string `json:"message"`
	Language string `json:"language,omitempty"`
}

// ChatResponse represents the response payload for POST /chat
type ChatResponse struct {
	Messages []entities.Message `json:"messages"`
}

// FollowupRequest represents the request payload for POST /followup
type FollowupRequest struct {
	Prev string `json:"prev"`
}

// FollowupResponse represents the response payload for POST /followup
type FollowupResponse struct {
	Message entities.Message `json:"message"`
}

// ZoomResponse acknowledges a zoom signal
type ZoomResponse struct {
	Success bool `json:"success"`
}

// ShouldZoomResponse reports whether the flag was set since the last poll
type ShouldZoomResponse struct {
	ShouldZoom bool `json:"shouldZoom"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
