package ask

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"blog-ask-client/pkg/sse"
)

// maxErrorBody bounds how much of a non-stream response body is read.
const maxErrorBody = 1 << 20

// Run drives one exchange over an already-issued ask response. When the
// server answers with a JSON body instead of an event stream, the
// success:false message is returned as an *AskError and no streaming
// occurs. Otherwise the event loop runs until a termination sentinel,
// idle timeout, or transport failure.
func Run(ctx context.Context, resp *http.Response, version Version, handlers Handlers, idleTimeout time.Duration) error {
	defer resp.Body.Close()

	if isJSONResponse(resp) {
		return decodeJSONShortCircuit(resp)
	}

	exchange := NewExchange(version, handlers)
	scanner := sse.NewScanner(resp.Body, sse.WithIdleTimeout(idleTimeout))
	defer scanner.Close()

	for {
		ev, err := scanner.Next(ctx)
		if errors.Is(err, sse.ErrStreamClosed) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("ask stream read: %w", err)
		}
		exchange.HandleEvent(ev)
	}
}

func isJSONResponse(resp *http.Response) bool {
	mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/json"
}

func decodeJSONShortCircuit(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("read ask response: %w", err)
	}

	var envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("unexpected ask response (status %d): %w", resp.StatusCode, err)
	}
	if !envelope.Success {
		return &AskError{Message: envelope.Message}
	}
	return fmt.Errorf("unexpected non-stream ask response (status %d)", resp.StatusCode)
}
