// Package presence keeps the external chat/presence directory in sync with
// user profiles.
package presence

import (
	"context"
	"time"

	stream "github.com/GetStream/stream-chat-go/v6"

	"github.com/oksasatya/langbridge/internal/application"
)

// StreamDirectory talks to Stream Chat directly.
type StreamDirectory struct {
	client *stream.Client
}

func NewStreamDirectory(apiKey, apiSecret string) (*StreamDirectory, error) {
	client, err := stream.NewClient(apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	return &StreamDirectory{client: client}, nil
}

func (d *StreamDirectory) UpsertUser(ctx context.Context, u application.PresenceUser) error {
	_, err := d.client.UpsertUser(ctx, &stream.User{ID: u.ID, Name: u.Name, Image: u.Image})
	return err
}

// CreateToken issues a non-expiring user token.
func (d *StreamDirectory) CreateToken(userID string) (string, error) {
	return d.client.CreateToken(userID, time.Time{})
}

var (
	_ application.PresenceDirectory = (*StreamDirectory)(nil)
	_ application.ChatTokenIssuer   = (*StreamDirectory)(nil)
)
