package queue

import "context"

// Exchange carries identity sync events published after successful
// webhook mutations.
const Exchange = "identity.events"

type Publisher interface {
	Publish(ctx context.Context, exchange, key string, event any, reqID string) error
	Close() error
}

// NoopPub is used when RABBIT_URL is unset; the service runs fine
// without a broker.
type NoopPub struct{}

func NewNoop() Publisher { return NoopPub{} }

func (NoopPub) Publish(ctx context.Context, exchange, key string, event any, reqID string) error {
	return nil
}
func (NoopPub) Close() error { return nil }

// UserSynced is emitted for user.created and user.updated events once
// the store mutation committed.
type UserSynced struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type UserDeleted struct {
	UserID string `json:"user_id"`
}
