package implementation

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"blog-ask-client/internal/api/contract"
	"blog-ask-client/internal/dto"
	"blog-ask-client/internal/transport"

	gocache "github.com/patrickmn/go-cache"
)

type sessionAPI struct {
	client *transport.Client
	cache  *gocache.Cache
}

// NewSessionAPI builds the REST session collaborator. Single-session
// lookups are cached for ttl; list and message calls always hit the
// server because their cursors are single-use.
func NewSessionAPI(client *transport.Client, ttl time.Duration) contract.ISessionAPI {
	return &sessionAPI{
		client: client,
		cache:  gocache.New(ttl, 2*ttl),
	}
}

func (a *sessionAPI) ListSessions(ctx context.Context, ownerUserID string, limit int, cursor *string) (*dto.SessionListResponse, error) {
	q := url.Values{}
	q.Set("owner_user_id", ownerUserID)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != nil {
		q.Set("cursor", *cursor)
	}

	var out dto.SessionListResponse
	if err := a.client.DoJSON(ctx, "GET", "/sessions?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *sessionAPI) GetSession(ctx context.Context, sessionID int64) (*dto.ChatSession, error) {
	key := sessionCacheKey(sessionID)
	if cached, found := a.cache.Get(key); found {
		session := cached.(dto.ChatSession)
		return &session, nil
	}

	var out dto.ChatSession
	if err := a.client.DoJSON(ctx, "GET", fmt.Sprintf("/sessions/%d", sessionID), nil, &out); err != nil {
		return nil, err
	}
	a.cache.SetDefault(key, out)
	return &out, nil
}

func (a *sessionAPI) ListMessages(ctx context.Context, sessionID int64, direction dto.Direction, cursor *string, limit int) (*dto.MessageListResponse, error) {
	q := url.Values{}
	if direction != "" {
		q.Set("direction", string(direction))
	}
	if cursor != nil {
		q.Set("cursor", *cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var out dto.MessageListResponse
	path := fmt.Sprintf("/sessions/%d/messages?%s", sessionID, q.Encode())
	if err := a.client.DoJSON(ctx, "GET", path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *sessionAPI) RenameSession(ctx context.Context, sessionID int64, title string) error {
	body := dto.RenameSessionRequest{Title: title}
	if err := a.client.DoJSON(ctx, "PUT", fmt.Sprintf("/sessions/%d", sessionID), body, nil); err != nil {
		return err
	}
	a.cache.Delete(sessionCacheKey(sessionID))
	return nil
}

func (a *sessionAPI) DeleteSession(ctx context.Context, sessionID int64) error {
	if err := a.client.DoJSON(ctx, "DELETE", fmt.Sprintf("/sessions/%d", sessionID), nil, nil); err != nil {
		return err
	}
	a.cache.Delete(sessionCacheKey(sessionID))
	return nil
}

func sessionCacheKey(sessionID int64) string {
	return "session:" + strconv.FormatInt(sessionID, 10)
}
