package conversation

import "context"

// Store is the narrow contract the flow engine uses for dialogue state.
//
// Get synthesizes a default context when none exists; the default is never
// persisted. Update loads (or synthesizes), applies mutate, persists the
// result, and refreshes the TTL — the partial-merge operation of the engine.
type Store interface {
	Get(ctx context.Context, contactID string) (Context, error)
	Update(ctx context.Context, contactID string, mutate func(*Context)) (Context, error)
	Clear(ctx context.Context, contactID string) error
}
