package store

import (
	"context"
	"time"

	"blog-ask-client/internal/dto"
	"blog-ask-client/pkg/ask"
)

// BeginExchange opens the ephemeral live buffer for a new exchange: one
// user turn holding the question and one empty assistant turn that the
// stream fills in. It returns the local ids of both turns.
func (s *Store) BeginExchange(question string, sessionID *int64) (userID, assistantID uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sending {
		return 0, 0, ErrExchangeInFlight
	}

	now := time.Now()
	user := &LiveMessage{
		LocalID:   s.nextLocalID(),
		Role:      dto.MessageRoleUser,
		Content:   question,
		CreatedAt: now,
	}
	assistant := &LiveMessage{
		LocalID:   s.nextLocalID(),
		Role:      dto.MessageRoleAssistant,
		CreatedAt: now.Add(time.Millisecond),
	}
	s.live = &liveExchange{sessionID: sessionID, messages: []*LiveMessage{user, assistant}}
	s.sending = true
	return user.LocalID, assistant.LocalID, nil
}

// nextLocalID must be called with the lock held. The counter is strictly
// increasing for the life of the store and survives Reset, so a local id
// is never reused.
func (s *Store) nextLocalID() uint64 {
	s.localSeq++
	return s.localSeq
}

// BindExchangeSession attaches the server-assigned session id to the
// in-flight exchange.
func (s *Store) BindExchangeSession(sessionID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live != nil {
		id := sessionID
		s.live.sessionID = &id
	}
}

// AppendAnswerChunk concatenates a streamed answer fragment onto the live
// turn's content. Chunks for the same turn arrive sequentially over one
// stream, so concatenation order is receipt order.
func (s *Store) AppendAnswerChunk(localID uint64, chunk string) {
	s.updateLive(localID, func(m *LiveMessage) {
		m.Content += chunk
	})
}

func (s *Store) SetExistInPost(localID uint64, exists bool) {
	s.updateLive(localID, func(m *LiveMessage) {
		v := exists
		m.ExistInPost = &v
	})
}

func (s *Store) SetSearchPlan(localID uint64, plan ask.SearchPlan) {
	s.updateLive(localID, func(m *LiveMessage) {
		p := plan
		m.Plan = &p
		m.PlanReceived = true
	})
}

func (s *Store) SetRewrites(localID uint64, rewrites []string) {
	s.updateLive(localID, func(m *LiveMessage) {
		m.Rewrites = rewrites
		m.RewritesReceived = true
	})
}

func (s *Store) SetKeywords(localID uint64, keywords []string) {
	s.updateLive(localID, func(m *LiveMessage) {
		m.Keywords = keywords
		m.KeywordsReceived = true
	})
}

func (s *Store) SetHybridResults(localID uint64, items []ask.ContextItem) {
	s.updateLive(localID, func(m *LiveMessage) {
		m.HybridResults = items
		m.HybridReceived = true
	})
}

func (s *Store) SetSearchResults(localID uint64, items []ask.ContextItem) {
	s.updateLive(localID, func(m *LiveMessage) {
		m.SearchResults = items
		m.SearchReceived = true
	})
}

func (s *Store) SetContext(localID uint64, items []ask.ContextItem) {
	s.updateLive(localID, func(m *LiveMessage) {
		m.Context = items
		m.ContextReceived = true
	})
}

// updateLive applies a single-field mutation to the live turn with the
// given local id. Each event type owns its field, so interleaved events
// never clobber each other; the store mutex serializes the writes.
func (s *Store) updateLive(localID uint64, apply func(*LiveMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live == nil {
		return
	}
	if m := s.live.find(localID); m != nil {
		apply(m)
	}
}

// CompleteExchange runs the save confirmation dance: refetch the
// authoritative history page for the session (replace, backward) and only
// once that refetch resolves clear the live buffer. The ordering prevents
// a visible flash where the exchange disappears before its server copy is
// available. The sending flag clears on every path.
func (s *Store) CompleteExchange(ctx context.Context, sessionID int64) error {
	mode := MergeReplace
	err := s.FetchMessages(ctx, sessionID, FetchOptions{
		Direction: dto.DirectionBackward,
		Mode:      &mode,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sending = false
	if err != nil {
		if s.live != nil {
			s.live.err = err.Error()
		}
		return err
	}
	s.live = nil
	return nil
}

// FailExchange records a user-visible error on the in-flight exchange and
// clears the sending flag. The streamed content stays visible.
func (s *Store) FailExchange(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sending = false
	if s.live != nil {
		s.live.err = message
	}
}

// EndExchange clears the sending flag for an exchange that terminated
// without a save confirmation. The live buffer stays until the next
// exchange begins or the store resets.
func (s *Store) EndExchange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sending = false
}
