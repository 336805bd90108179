package dto

import (
	"encoding/json"
	"time"
)

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// Direction selects which way a message page extends from the cursor.
// Backward loads older messages (initial load and "load more" at top);
// forward is reserved for loading newer ones.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
)

// ChatSessionMessage is one turn in a conversation. Id is unique within a
// session and is the dedup key when overlapping history pages are merged.
// SearchPlan and RetrievalMeta are opaque server blobs consumed by the
// inspector panel; they are only populated for assistant turns.
type ChatSessionMessage struct {
	ID            int64           `json:"id"`
	SessionID     int64           `json:"session_id"`
	Role          string          `json:"role"`
	Content       string          `json:"content"`
	SearchPlan    json.RawMessage `json:"search_plan,omitempty"`
	RetrievalMeta json.RawMessage `json:"retrieval_meta,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type MessageListResponse struct {
	Messages []ChatSessionMessage `json:"messages"`
	Paging   Paging               `json:"paging"`
}
