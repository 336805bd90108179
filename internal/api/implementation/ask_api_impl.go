package implementation

import (
	"context"
	"time"

	"blog-ask-client/internal/api/contract"
	"blog-ask-client/internal/dto"
	"blog-ask-client/internal/transport"
	"blog-ask-client/pkg/ask"
)

type askAPI struct {
	client      *transport.Client
	idleTimeout time.Duration
}

// NewAskAPI builds the streaming ask collaborator. idleTimeout bounds the
// gap between consecutive stream events; zero disables the bound.
func NewAskAPI(client *transport.Client, idleTimeout time.Duration) contract.IAskAPI {
	return &askAPI{client: client, idleTimeout: idleTimeout}
}

func (a *askAPI) Ask(ctx context.Context, version ask.Version, req *dto.AskRequest, handlers ask.Handlers) error {
	resp, err := a.client.Stream(ctx, "POST", version.Path(), req)
	if err != nil {
		return err
	}
	return ask.Run(ctx, resp, version, handlers, a.idleTimeout)
}
