package dto

// AskRequest is the body of POST /ask and POST /v2/ask.
type AskRequest struct {
	Question        string `json:"question" validate:"required"`
	UserID          string `json:"user_id" validate:"required"`
	CategoryID      int64  `json:"category_id" validate:"required"`
	SpeechTone      string `json:"speech_tone" validate:"required"`
	PostID          *int64 `json:"post_id,omitempty"`
	LLM             string `json:"llm,omitempty"`
	SessionID       *int64 `json:"session_id,omitempty"`
	RequesterUserID string `json:"requester_user_id,omitempty"`
}

// ErrorEnvelope is the JSON body the ask endpoints return instead of an
// event stream when the exchange is rejected up front.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
