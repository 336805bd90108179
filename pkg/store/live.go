package store

import (
	"time"

	"blog-ask-client/pkg/ask"
)

// LiveMessage is one turn of the in-flight exchange, held apart from the
// fetched history until the server confirms the save. It is keyed by an
// explicit LocalID drawn from a per-store counter, never by a server
// message id, so collision with history entries is structurally
// impossible.
//
// Each retrieval signal carries its own Received flag: the protocol
// streams them in arbitrary interleaving, and the inspector must tell
// "pending" from "arrived empty" from "populated". Fields are settable
// independently; only same-field updates (answer chunks) are ordered, by
// receipt, via concatenation.
type LiveMessage struct {
	LocalID   uint64
	Role      string
	Content   string
	CreatedAt time.Time

	ExistInPost *bool

	Plan         *ask.SearchPlan
	PlanReceived bool

	Rewrites         []string
	RewritesReceived bool

	Keywords         []string
	KeywordsReceived bool

	HybridResults  []ask.ContextItem
	HybridReceived bool

	SearchResults  []ask.ContextItem
	SearchReceived bool

	Context         []ask.ContextItem
	ContextReceived bool
}

// liveExchange is the ephemeral buffer for the single in-flight exchange.
// sessionID stays nil until the stream's session event binds it.
type liveExchange struct {
	sessionID *int64
	messages  []*LiveMessage
	err       string
}

func (e *liveExchange) find(localID uint64) *LiveMessage {
	for _, m := range e.messages {
		if m.LocalID == localID {
			return m
		}
	}
	return nil
}
