package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/AlexZinkM/wallet-guard/internal/model"
)

// Handler serves one Method. params is the raw JSON sent by the caller.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// Registry maps every method a context serves to its handler.
type Registry map[Method]Handler

// Handle adapts a typed function into a Handler.
// Missing or null params decode into the zero P.
func Handle[P, R any](fn func(ctx context.Context, params P) (R, error)) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var params P
		if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
			if err := json.Unmarshal(raw, &params); err != nil {
				return nil, fmt.Errorf("%w: %v", model.ErrInvalidParams, err)
			}
		}
		return fn(ctx, params)
	}
}

type callerKey struct{}

// Caller returns the label of the context that issued the call being served.
func Caller(ctx context.Context) string {
	label, _ := ctx.Value(callerKey{}).(string)
	return label
}

func withCaller(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, callerKey{}, label)
}
