package remote

import (
	"github.com/inkstone/handsynth/model"
	"github.com/inkstone/handsynth/stroke"
)

// StyleRequest is the body of POST /v1/style.
type StyleRequest struct {
	Input *model.Input `json:"input"`
}

// StyleResponse is returned by POST /v1/style.
type StyleResponse struct {
	Style []float64 `json:"style"`
}

// SessionRequest is the body of POST /v1/sessions.
type SessionRequest struct {
	ID    string    `json:"id"`
	Style []float64 `json:"style"`
	Chars []int     `json:"chars"`
}

// SessionResponse is returned by POST /v1/sessions.
type SessionResponse struct {
	ID string `json:"id"`
}

// StepRequest is the body of POST /v1/sessions/{id}/step.
type StepRequest struct {
	Prev stroke.Offset `json:"prev"`
}

// StepResponse is returned by POST /v1/sessions/{id}/step.
type StepResponse struct {
	Mixture model.Mixture `json:"mixture"`
}

// KindGeneration marks a reply for a decode step whose mixture is not
// finite. It is sent with status 422.
const KindGeneration = "generation"

// ErrorResponse is the body of non-200 replies.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
