// Package ask decodes the question/answer exchange protocol layered on top
// of server-sent events. Two protocol versions exist: v1 streams context
// and answer chunks, v2 adds the retrieval trace (search plan, rewrites,
// keywords, hybrid and lexical results).
package ask

import "encoding/json"

// Version selects the protocol variant for an exchange.
type Version int

const (
	V1 Version = 1
	V2 Version = 2
)

// Path returns the ask endpoint path for the version.
func (v Version) Path() string {
	if v == V2 {
		return "/v2/ask"
	}
	return "/ask"
}

// Event names emitted by the ask endpoints.
const (
	eventExistInPost  = "exist_in_post_status"
	eventContext      = "context"
	eventAnswer       = "answer"
	eventSession      = "session"
	eventSessionSaved = "session_saved"
	eventSessionError = "session_error"
	eventSearchPlan   = "search_plan"
	eventRewrite      = "rewrite"
	eventKeywords     = "keywords"
	eventHybridResult = "hybrid_result"
	eventSearchResult = "search_result"
	eventError        = "error"
)

// ContextItem is a reference to a source post used to ground an answer,
// normalized from the server's heterogeneous field naming.
type ContextItem struct {
	PostID    string `json:"post_id"`
	PostTitle string `json:"post_title"`
}

// SessionEvent reports the session a streamed exchange was attached to.
type SessionEvent struct {
	SessionID       int64  `json:"session_id"`
	OwnerUserID     string `json:"owner_user_id"`
	RequesterUserID string `json:"requester_user_id"`
}

// SessionSavedEvent confirms the exchange was persisted server-side.
type SessionSavedEvent struct {
	SessionEvent
	Cached bool `json:"cached"`
}

// SessionErrorEvent reports a session lifecycle failure.
type SessionErrorEvent struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// SearchPlan is the structured retrieval plan streamed by v2 before any
// search results arrive.
type SearchPlan struct {
	Mode    string       `json:"mode,omitempty"`
	TopK    int          `json:"top_k,omitempty"`
	Filters *PlanFilters `json:"filters,omitempty"`
	Hybrid  *HybridSpec  `json:"hybrid,omitempty"`
}

type PlanFilters struct {
	Time *TimeFilter `json:"time,omitempty"`
}

// TimeFilter restricts retrieval to a window, either as absolute bounds or
// relative to now. Only one of the two sub-shapes is populated.
type TimeFilter struct {
	Absolute *AbsoluteTime `json:"absolute,omitempty"`
	Relative *RelativeTime `json:"relative,omitempty"`
}

type AbsoluteTime struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

type RelativeTime struct {
	Unit   string `json:"unit,omitempty"`
	Amount int    `json:"amount,omitempty"`
}

type HybridSpec struct {
	Enabled       bool    `json:"enabled"`
	RetrievalBias string  `json:"retrieval_bias,omitempty"`
	Alpha         float64 `json:"alpha,omitempty"`
}

// AskError is an application-level error surfaced by the ask endpoints,
// either as a `success:false` JSON body or an `error` stream event.
type AskError struct {
	Code    string
	Message string
}

func (e *AskError) Error() string {
	if e.Code != "" {
		return "ask: " + e.Code + ": " + e.Message
	}
	return "ask: " + e.Message
}

// decodeBool accepts the bare literals true/false as well as a
// JSON-encoded boolean; both are valid JSON booleans.
func decodeBool(data string) (bool, bool) {
	var v bool
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return false, false
	}
	return v, true
}

// decodeStringArray rejects payloads that parse but are not arrays.
func decodeStringArray(data string) ([]string, bool) {
	var v []string
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, false
	}
	if v == nil {
		return nil, false
	}
	return v, true
}
