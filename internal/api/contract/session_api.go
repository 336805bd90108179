package contract

import (
	"context"

	"blog-ask-client/internal/dto"
)

// ISessionAPI is the REST collaborator for session and message history
// access. Cursors are opaque, single-use continuation tokens.
type ISessionAPI interface {
	ListSessions(ctx context.Context, ownerUserID string, limit int, cursor *string) (*dto.SessionListResponse, error)
	GetSession(ctx context.Context, sessionID int64) (*dto.ChatSession, error)
	ListMessages(ctx context.Context, sessionID int64, direction dto.Direction, cursor *string, limit int) (*dto.MessageListResponse, error)
	RenameSession(ctx context.Context, sessionID int64, title string) error
	DeleteSession(ctx context.Context, sessionID int64) error
}
