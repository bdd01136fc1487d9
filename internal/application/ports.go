package application

import (
	"context"
	"io"

	"github.com/oksasatya/langbridge/internal/domain/entity"
)

// PresenceUser is the identity pushed to the chat provider's user directory.
type PresenceUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// PresenceDirectory is the external chat/video user directory. It is notified on
// user create and update; its failures never fail the owning operation.
type PresenceDirectory interface {
	UpsertUser(ctx context.Context, u PresenceUser) error
}

// ChatTokenIssuer mints client tokens for the chat provider.
type ChatTokenIssuer interface {
	CreateToken(userID string) (string, error)
}

// SessionStore tracks the active session of each user.
type SessionStore interface {
	Save(ctx context.Context, userID string, fields map[string]any) error
	SessionID(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}

// UserIndexer keeps the user search index in sync.
type UserIndexer interface {
	Index(ctx context.Context, u *entity.User) error
	Search(ctx context.Context, q string, size int) ([]map[string]any, error)
}

// ObjectStore stores uploaded files and returns their public URL.
type ObjectStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// JobPublisher enqueues background jobs (welcome emails).
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}
