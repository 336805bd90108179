package store

import "blog-ask-client/internal/dto"

// SessionListSnapshot is a read-only copy of the session list state.
type SessionListSnapshot struct {
	Sessions    []dto.ChatSession
	HasMore     bool
	Loading     bool
	LoadingMore bool
	Error       string
}

// MessagesSnapshot is a read-only copy of one session's history state.
type MessagesSnapshot struct {
	Messages []dto.ChatSessionMessage
	State    LoadState
	HasMore  bool
	Cursor   *string
	Error    string
}

// ExchangeSnapshot is a read-only copy of the in-flight exchange.
type ExchangeSnapshot struct {
	SessionID *int64
	Messages  []LiveMessage
	Sending   bool
	Error     string
}

func (s *Store) SessionList() SessionListSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionListSnapshot{
		Sessions:    append([]dto.ChatSession(nil), s.sessions...),
		HasMore:     s.sessionsHaveMore,
		Loading:     s.loadingSessions,
		LoadingMore: s.loadingMore,
		Error:       s.sessionsError,
	}
}

func (s *Store) Selected() *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	id := *s.selected
	return &id
}

// Messages returns the history snapshot for a session. An unvisited
// session reports StateUnloaded with no data.
func (s *Store) Messages(sessionID int64) MessagesSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.messageSets[sessionID]
	if !ok {
		return MessagesSnapshot{State: StateUnloaded}
	}
	return MessagesSnapshot{
		Messages: append([]dto.ChatSessionMessage(nil), set.Messages...),
		State:    set.State,
		HasMore:  set.HasMore,
		Cursor:   set.NextCursor,
		Error:    set.Error,
	}
}

// Exchange returns a copy of the live buffer, or a zero snapshot when no
// exchange is in flight.
func (s *Store) Exchange() ExchangeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := ExchangeSnapshot{Sending: s.sending}
	if s.live == nil {
		return snap
	}
	if s.live.sessionID != nil {
		id := *s.live.sessionID
		snap.SessionID = &id
	}
	snap.Error = s.live.err
	snap.Messages = make([]LiveMessage, 0, len(s.live.messages))
	for _, m := range s.live.messages {
		snap.Messages = append(snap.Messages, *m)
	}
	return snap
}
