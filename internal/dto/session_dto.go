package dto

import "time"

// ChatSession represents one conversation thread as returned by the
// sessions API. A locally synthesized stub (see store.UpsertSessionFromStream)
// carries only the ids from the stream event until the next full refetch.
type ChatSession struct {
	SessionID       int64                  `json:"session_id"`
	OwnerUserID     string                 `json:"owner_user_id"`
	RequesterUserID string                 `json:"requester_user_id"`
	Title           *string                `json:"title"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	LastQuestionAt  *time.Time             `json:"last_question_at,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       *time.Time             `json:"updated_at,omitempty"`
	MessageCount    int                    `json:"message_count"`
}

// Paging carries the cursor state for one page of a cursor-paginated
// collection. A cursor is single-use: the next page must be requested with
// the NextCursor returned here.
type Paging struct {
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

type SessionListResponse struct {
	Sessions []ChatSession `json:"sessions"`
	Paging   Paging        `json:"paging"`
}

type RenameSessionRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}
