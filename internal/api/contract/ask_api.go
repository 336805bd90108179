package contract

import (
	"context"

	"blog-ask-client/internal/dto"
	"blog-ask-client/pkg/ask"
)

// IAskAPI drives one streaming question/answer exchange. Handler
// callbacks fire sequentially while Ask blocks; Ask returns nil after
// clean stream termination, an *ask.AskError when the server rejected the
// exchange up front, and a transport error otherwise.
type IAskAPI interface {
	Ask(ctx context.Context, version ask.Version, req *dto.AskRequest, handlers ask.Handlers) error
}
