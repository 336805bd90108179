// Package store is the single source of truth for chat session state: the
// cursor-paginated session list, per-session message histories, and the
// ephemeral buffer of the exchange currently streaming. The presentation
// layer reads snapshots and dispatches through the documented operations;
// it never mutates store-owned collections.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"blog-ask-client/internal/api/contract"
	"blog-ask-client/internal/dto"
	"blog-ask-client/internal/pkg/logger"
	"blog-ask-client/pkg/ask"
)

// ErrExchangeInFlight is returned by BeginExchange while a previous
// exchange is still streaming.
var ErrExchangeInFlight = errors.New("store: an exchange is already in flight")

// FetchOptions parameterizes one message page fetch. When Mode is nil it
// is inferred: an explicit cursor means prepend for backward (older)
// pages and append for forward ones; no cursor means replace.
type FetchOptions struct {
	Cursor    *string
	Direction dto.Direction
	Limit     int
	Mode      *MergeMode
}

// Store is a constructed, injected object: build one per viewed blog
// owner surface, call Reset when the owner changes. All state is behind
// one mutex; fetches run outside it and re-validate (epoch, context)
// before committing, so a stale or aborted fetch never writes.
type Store struct {
	mu     sync.Mutex
	api    contract.ISessionAPI
	logger logger.ILogger

	epoch uint64

	ownerUserID      string
	sessions         []dto.ChatSession
	sessionCursor    *string
	sessionsHaveMore bool
	loadingSessions  bool
	loadingMore      bool
	sessionsError    string

	selected    *int64
	messageSets map[int64]*MessageSet

	live     *liveExchange
	sending  bool
	localSeq uint64

	panelOpen bool
}

func New(api contract.ISessionAPI, log logger.ILogger) *Store {
	return &Store{
		api:         api,
		logger:      log,
		messageSets: make(map[int64]*MessageSet),
	}
}

// Reset clears all session and message state. Call it whenever the viewed
// blog owner changes; in-flight fetches started before the reset are
// discarded when they resolve.
func (s *Store) Reset(ownerUserID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.ownerUserID = ownerUserID
	s.sessions = nil
	s.sessionCursor = nil
	s.sessionsHaveMore = false
	s.loadingSessions = false
	s.loadingMore = false
	s.sessionsError = ""
	s.selected = nil
	s.messageSets = make(map[int64]*MessageSet)
	s.live = nil
	s.sending = false
}

// FetchInitialSessions replaces the session list with the first page for
// the owner. A failed fetch leaves the current list untouched and records
// the error.
func (s *Store) FetchInitialSessions(ctx context.Context, ownerUserID string, limit int) error {
	s.mu.Lock()
	if s.loadingSessions {
		s.mu.Unlock()
		return nil
	}
	s.loadingSessions = true
	s.sessionsError = ""
	s.ownerUserID = ownerUserID
	epoch := s.epoch
	s.mu.Unlock()

	resp, err := s.api.ListSessions(ctx, ownerUserID, limit, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return nil
	}
	s.loadingSessions = false
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		s.sessionsError = err.Error()
		return err
	}
	s.sessions = resp.Sessions
	s.sessionCursor = resp.Paging.NextCursor
	s.sessionsHaveMore = resp.Paging.HasMore
	return nil
}

// FetchMoreSessions appends the next session page. It is a no-op while a
// page is already loading or when the list is exhausted; cursor pages are
// non-overlapping by contract, so no dedup happens here.
func (s *Store) FetchMoreSessions(ctx context.Context) error {
	s.mu.Lock()
	if !s.sessionsHaveMore || s.loadingMore || s.loadingSessions {
		s.mu.Unlock()
		return nil
	}
	s.loadingMore = true
	cursor := s.sessionCursor
	owner := s.ownerUserID
	epoch := s.epoch
	s.mu.Unlock()

	resp, err := s.api.ListSessions(ctx, owner, 0, cursor)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return nil
	}
	s.loadingMore = false
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		s.sessionsError = err.Error()
		return err
	}
	s.sessions = append(s.sessions, resp.Sessions...)
	s.sessionCursor = resp.Paging.NextCursor
	s.sessionsHaveMore = resp.Paging.HasMore
	return nil
}

// SelectSession sets the active session pointer. nil means "no session
// yet / new conversation". It does not fetch; callers trigger
// FetchMessages on change.
func (s *Store) SelectSession(sessionID *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = sessionID
}

// FetchMessages fetches one history page for the session and merges it
// per the reconciliation algorithm. State for each session lives in its
// own keyed slot; a fetch resolving after the user switched sessions can
// only ever touch its own session's slot.
func (s *Store) FetchMessages(ctx context.Context, sessionID int64, opts FetchOptions) error {
	direction := opts.Direction
	if direction == "" {
		direction = dto.DirectionBackward
	}
	mode := inferMode(opts, direction)

	s.mu.Lock()
	set := s.ensureSet(sessionID)
	if (set.State == StateLoading || set.State == StateLoadingMore) && mode != MergeReplace {
		s.mu.Unlock()
		return nil
	}
	if len(set.Messages) == 0 {
		set.State = StateLoading
	} else {
		set.State = StateLoadingMore
	}
	epoch := s.epoch
	s.mu.Unlock()

	resp, err := s.api.ListMessages(ctx, sessionID, direction, opts.Cursor, opts.Limit)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return nil
	}
	set = s.ensureSet(sessionID)
	set.State = StateLoaded
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		set.Error = err.Error()
		return err
	}
	set.Error = ""
	set.Messages = mergeMessages(set.Messages, resp.Messages, mode)
	if direction == dto.DirectionBackward {
		set.NextCursor = resp.Paging.NextCursor
		set.HasMore = resp.Paging.HasMore
	}
	return nil
}

func inferMode(opts FetchOptions, direction dto.Direction) MergeMode {
	if opts.Mode != nil {
		return *opts.Mode
	}
	if opts.Cursor != nil {
		if direction == dto.DirectionBackward {
			return MergePrepend
		}
		return MergeAppend
	}
	return MergeReplace
}

func (s *Store) ensureSet(sessionID int64) *MessageSet {
	set, ok := s.messageSets[sessionID]
	if !ok {
		set = &MessageSet{}
		s.messageSets[sessionID] = set
	}
	return set
}

// UpsertSessionFromStream inserts a stub session at the front of the list
// the moment a streamed session event reports an id not yet known
// locally. Existence is checked by id only; a stub is never merged or
// updated in place, the next full refetch supersedes it. Reports whether
// a stub was inserted.
func (s *Store) UpsertSessionFromStream(ev ask.SessionEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sessions {
		if s.sessions[i].SessionID == ev.SessionID {
			return false
		}
	}
	now := time.Now()
	stub := dto.ChatSession{
		SessionID:       ev.SessionID,
		OwnerUserID:     ev.OwnerUserID,
		RequesterUserID: ev.RequesterUserID,
		CreatedAt:       now,
		LastQuestionAt:  &now,
	}
	s.sessions = append([]dto.ChatSession{stub}, s.sessions...)
	s.logger.Debug("store", "stub session inserted", map[string]interface{}{
		"session_id": ev.SessionID,
	})
	return true
}

// ApplyRename updates the title of a session after a successful rename
// call. Unknown ids are ignored.
func (s *Store) ApplyRename(sessionID int64, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].SessionID == sessionID {
			t := title
			s.sessions[i].Title = &t
			return
		}
	}
}

// RemoveSession drops a session and its message history after a
// successful delete call.
func (s *Store) RemoveSession(sessionID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.sessions[:0]
	for _, session := range s.sessions {
		if session.SessionID != sessionID {
			kept = append(kept, session)
		}
	}
	s.sessions = kept
	delete(s.messageSets, sessionID)
	if s.selected != nil && *s.selected == sessionID {
		s.selected = nil
	}
}

// SetPanelOpen flips the process-wide chat panel visibility flag.
func (s *Store) SetPanelOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelOpen = open
}

func (s *Store) PanelOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panelOpen
}
