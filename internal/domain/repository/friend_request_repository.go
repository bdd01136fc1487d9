package repository

import (
	"context"
	"time"

	"github.com/oksasatya/langbridge/internal/domain/entity"
)

// Role selects which side of a friend request a listing is keyed by.
type Role string

const (
	RoleSender    Role = "sender"
	RoleRecipient Role = "recipient"
)

// ListFilter narrows a friend request listing to one bucket.
// Pending buckets are ordered by created_at, resolved ones by updated_at, both newest first.
type ListFilter struct {
	UserID string
	Role   Role
	Status entity.FriendRequestStatus
}

// FriendRequestRepository defines the friend request store.
type FriendRequestRepository interface {
	// Create inserts a pending request. It returns ErrDuplicate when any request
	// already connects the unordered pair.
	Create(ctx context.Context, r *entity.FriendRequest) error
	GetByID(ctx context.Context, id string) (*entity.FriendRequest, error)
	FindBetween(ctx context.Context, a, b string) (*entity.FriendRequest, error)

	// Transition moves the request to status to only if its current status is from,
	// stamping updated_at with at. It returns ErrStaleStatus when the current status differs.
	Transition(ctx context.Context, id string, from, to entity.FriendRequestStatus, at time.Time) (*entity.FriendRequest, error)

	// List returns one bucket with Sender and Recipient summaries populated.
	List(ctx context.Context, f ListFilter) ([]*entity.FriendRequest, error)

	// ConnectedUserIDs returns the counterpart ids of every request involving userID
	// whose status is one of statuses.
	ConnectedUserIDs(ctx context.Context, userID string, statuses ...entity.FriendRequestStatus) ([]string, error)
}
