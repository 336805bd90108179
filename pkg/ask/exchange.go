package ask

import (
	"encoding/json"

	"blog-ask-client/pkg/sse"
)

// Handlers receives decoded protocol events. Every callback is optional.
// Callbacks fire sequentially in arrival order; no two fire concurrently
// for one exchange.
type Handlers struct {
	OnExistInPost  func(exists bool)
	OnContext      func(items []ContextItem)
	OnAnswerChunk  func(chunk string)
	OnSession      func(ev SessionEvent)
	OnSessionSaved func(ev SessionSavedEvent)
	OnSessionError func(ev SessionErrorEvent)

	// v2 only
	OnSearchPlan   func(plan SearchPlan)
	OnRewrites     func(rewrites []string)
	OnKeywords     func(keywords []string)
	OnHybridResult func(items []ContextItem)
	OnSearchResult func(items []ContextItem)
	OnError        func(err AskError)
}

// Exchange decodes the events of a single question/answer exchange.
// A malformed payload drops that one event and never aborts the stream.
type Exchange struct {
	version     Version
	handlers    Handlers
	contextSent bool
}

func NewExchange(version Version, handlers Handlers) *Exchange {
	return &Exchange{version: version, handlers: handlers}
}

// HandleEvent dispatches one decoded SSE event to its typed handler.
// Unknown event names are ignored, as are v2 events on a v1 exchange.
func (e *Exchange) HandleEvent(ev sse.Event) {
	switch ev.Name {
	case eventExistInPost:
		if v, ok := decodeBool(ev.Data); ok && e.handlers.OnExistInPost != nil {
			e.handlers.OnExistInPost(v)
		}
	case eventContext:
		// Latched: delivered at most once per exchange, even if the
		// server repeats the event.
		if e.contextSent {
			return
		}
		if items, ok := normalizeContextItems(ev.Data); ok {
			e.contextSent = true
			if e.handlers.OnContext != nil {
				e.handlers.OnContext(items)
			}
		}
	case eventAnswer:
		var chunk string
		if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
			return
		}
		if e.handlers.OnAnswerChunk != nil {
			e.handlers.OnAnswerChunk(chunk)
		}
	case eventSession:
		if ev2, ok := decodeSessionEvent(ev.Data); ok && e.handlers.OnSession != nil {
			e.handlers.OnSession(ev2)
		}
	case eventSessionSaved:
		e.handleSessionSaved(ev.Data)
	case eventSessionError:
		var se SessionErrorEvent
		// Always forwarded, even when the payload carries no detail.
		_ = json.Unmarshal([]byte(ev.Data), &se)
		if e.handlers.OnSessionError != nil {
			e.handlers.OnSessionError(se)
		}
	case eventSearchPlan, eventRewrite, eventKeywords, eventHybridResult, eventSearchResult, eventError:
		if e.version == V2 {
			e.handleV2Event(ev)
		}
	}
}

func (e *Exchange) handleSessionSaved(data string) {
	var raw struct {
		SessionID       *int64 `json:"session_id"`
		OwnerUserID     string `json:"owner_user_id"`
		RequesterUserID string `json:"requester_user_id"`
		Cached          bool   `json:"cached"`
	}
	if err := json.Unmarshal([]byte(data), &raw); err != nil || raw.SessionID == nil {
		return
	}
	if e.handlers.OnSessionSaved != nil {
		e.handlers.OnSessionSaved(SessionSavedEvent{
			SessionEvent: SessionEvent{
				SessionID:       *raw.SessionID,
				OwnerUserID:     raw.OwnerUserID,
				RequesterUserID: raw.RequesterUserID,
			},
			Cached: raw.Cached,
		})
	}
}

func (e *Exchange) handleV2Event(ev sse.Event) {
	switch ev.Name {
	case eventSearchPlan:
		var plan SearchPlan
		if err := json.Unmarshal([]byte(ev.Data), &plan); err != nil {
			return
		}
		if e.handlers.OnSearchPlan != nil {
			e.handlers.OnSearchPlan(plan)
		}
	case eventRewrite:
		if v, ok := decodeStringArray(ev.Data); ok && e.handlers.OnRewrites != nil {
			e.handlers.OnRewrites(v)
		}
	case eventKeywords:
		if v, ok := decodeStringArray(ev.Data); ok && e.handlers.OnKeywords != nil {
			e.handlers.OnKeywords(v)
		}
	case eventHybridResult:
		if items, ok := normalizeContextItems(ev.Data); ok && e.handlers.OnHybridResult != nil {
			e.handlers.OnHybridResult(items)
		}
	case eventSearchResult:
		if items, ok := normalizeContextItems(ev.Data); ok && e.handlers.OnSearchResult != nil {
			e.handlers.OnSearchResult(items)
		}
	case eventError:
		if e.handlers.OnError != nil {
			e.handlers.OnError(decodeErrorEvent(ev.Data))
		}
	}
}

// decodeSessionEvent forwards the event only when session_id is present.
func decodeSessionEvent(data string) (SessionEvent, bool) {
	var raw struct {
		SessionID       *int64 `json:"session_id"`
		OwnerUserID     string `json:"owner_user_id"`
		RequesterUserID string `json:"requester_user_id"`
	}
	if err := json.Unmarshal([]byte(data), &raw); err != nil || raw.SessionID == nil {
		return SessionEvent{}, false
	}
	return SessionEvent{
		SessionID:       *raw.SessionID,
		OwnerUserID:     raw.OwnerUserID,
		RequesterUserID: raw.RequesterUserID,
	}, true
}

// decodeErrorEvent accepts an object with message/code, a bare JSON
// string, or an unparseable payload.
func decodeErrorEvent(data string) AskError {
	var obj struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal([]byte(data), &obj); err == nil && (obj.Message != "" || obj.Code != "") {
		return AskError{Code: obj.Code, Message: obj.Message}
	}
	var s string
	if err := json.Unmarshal([]byte(data), &s); err == nil {
		return AskError{Message: s}
	}
	return AskError{Message: data}
}
