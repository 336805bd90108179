package service

import (
	"context"
	"errors"
	"fmt"

	"blog-ask-client/internal/api/contract"
	"blog-ask-client/internal/dto"
	"blog-ask-client/internal/pkg/logger"
	"blog-ask-client/pkg/ask"
	"blog-ask-client/pkg/store"

	"github.com/go-playground/validator/v10"
)

// FallbackErrorMessage is surfaced to the conversation when an exchange
// dies without an application-level reason.
const FallbackErrorMessage = "Something went wrong while answering. Please try again."

// IChatService defines the chat orchestration surface consumed by the
// presentation layer.
type IChatService interface {
	AskQuestion(ctx context.Context, req *dto.AskRequest) error
	RenameSession(ctx context.Context, sessionID int64, title string) error
	DeleteSession(ctx context.Context, sessionID int64) error
}

// chatService wires the streaming ask protocol into the session store:
// every decoded event lands in the live buffer, session events stub the
// session list, and the save confirmation triggers the authoritative
// history refetch before the live buffer clears.
type chatService struct {
	askAPI     contract.IAskAPI
	sessionAPI contract.ISessionAPI
	store      *store.Store
	validate   *validator.Validate
	logger     logger.ILogger
	version    ask.Version
}

func NewChatService(
	askAPI contract.IAskAPI,
	sessionAPI contract.ISessionAPI,
	st *store.Store,
	log logger.ILogger,
	version ask.Version,
) IChatService {
	return &chatService{
		askAPI:     askAPI,
		sessionAPI: sessionAPI,
		store:      st,
		validate:   validator.New(),
		logger:     log,
		version:    version,
	}
}

// AskQuestion runs one exchange end to end. Every path out of here —
// clean termination, application error event, or thrown transport error —
// leaves the store's sending flag cleared; the UI can never get stuck
// pending.
func (cs *chatService) AskQuestion(ctx context.Context, req *dto.AskRequest) error {
	if err := cs.validate.Struct(req); err != nil {
		return fmt.Errorf("invalid ask request: %w", err)
	}

	_, assistantID, err := cs.store.BeginExchange(req.Question, req.SessionID)
	if err != nil {
		return err
	}

	var savedSessionID *int64
	handlers := ask.Handlers{
		OnExistInPost: func(exists bool) {
			cs.store.SetExistInPost(assistantID, exists)
		},
		OnContext: func(items []ask.ContextItem) {
			cs.store.SetContext(assistantID, items)
		},
		OnAnswerChunk: func(chunk string) {
			cs.store.AppendAnswerChunk(assistantID, chunk)
		},
		OnSession: func(ev ask.SessionEvent) {
			cs.store.BindExchangeSession(ev.SessionID)
			cs.store.UpsertSessionFromStream(ev)
			if cs.store.Selected() == nil {
				id := ev.SessionID
				cs.store.SelectSession(&id)
			}
		},
		OnSessionSaved: func(ev ask.SessionSavedEvent) {
			id := ev.SessionID
			savedSessionID = &id
			cs.store.BindExchangeSession(ev.SessionID)
			cs.store.UpsertSessionFromStream(ev.SessionEvent)
		},
		OnSessionError: func(ev ask.SessionErrorEvent) {
			cs.store.FailExchange(sessionErrorMessage(ev))
		},
		OnSearchPlan: func(plan ask.SearchPlan) {
			cs.store.SetSearchPlan(assistantID, plan)
		},
		OnRewrites: func(rewrites []string) {
			cs.store.SetRewrites(assistantID, rewrites)
		},
		OnKeywords: func(keywords []string) {
			cs.store.SetKeywords(assistantID, keywords)
		},
		OnHybridResult: func(items []ask.ContextItem) {
			cs.store.SetHybridResults(assistantID, items)
		},
		OnSearchResult: func(items []ask.ContextItem) {
			cs.store.SetSearchResults(assistantID, items)
		},
		OnError: func(askErr ask.AskError) {
			cs.store.FailExchange(askErr.Message)
		},
	}

	if err := cs.askAPI.Ask(ctx, cs.version, req, handlers); err != nil {
		var appErr *ask.AskError
		if errors.As(err, &appErr) {
			cs.store.FailExchange(appErr.Message)
		} else {
			cs.store.FailExchange(FallbackErrorMessage)
		}
		cs.logger.Error("chat", "ask exchange failed", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	if savedSessionID != nil {
		if err := cs.store.CompleteExchange(ctx, *savedSessionID); err != nil {
			cs.logger.Warn("chat", "post-save history refetch failed", map[string]interface{}{
				"session_id": *savedSessionID,
				"error":      err.Error(),
			})
			return err
		}
		return nil
	}

	// Stream ended without a save confirmation; keep what streamed but
	// release the pending state.
	cs.store.EndExchange()
	return nil
}

// RenameSession renames on the server, then reflects the result into the
// store.
func (cs *chatService) RenameSession(ctx context.Context, sessionID int64, title string) error {
	req := dto.RenameSessionRequest{Title: title}
	if err := cs.validate.Struct(req); err != nil {
		return fmt.Errorf("invalid rename request: %w", err)
	}
	if err := cs.sessionAPI.RenameSession(ctx, sessionID, title); err != nil {
		return err
	}
	cs.store.ApplyRename(sessionID, title)
	return nil
}

// DeleteSession deletes on the server, then drops the session locally.
func (cs *chatService) DeleteSession(ctx context.Context, sessionID int64) error {
	if err := cs.sessionAPI.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	cs.store.RemoveSession(sessionID)
	return nil
}

func sessionErrorMessage(ev ask.SessionErrorEvent) string {
	if ev.Message != "" {
		return ev.Message
	}
	if ev.Reason != "" {
		return ev.Reason
	}
	return FallbackErrorMessage
}
