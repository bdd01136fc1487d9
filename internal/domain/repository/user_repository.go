package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/langbridge/internal/domain/entity"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleStatus is returned when a compare-and-set status transition finds a different current status.
	ErrStaleStatus = errors.New("status changed concurrently")
)

// ProfileUpdate carries the columns onboarding owns.
type ProfileUpdate struct {
	FullName         string
	Bio              string
	NativeLanguage   string
	LearningLanguage string
	Location         string
	ProfilePic       string
}

// UserRepository defines the interface for user directory operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.User, error)

	// UpdateProfile writes only the onboarding columns and sets is_onboarded.
	// An empty ProfilePic keeps the stored one.
	UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (*entity.User, error)
	// SetProfilePic writes only profile_pic.
	SetProfilePic(ctx context.Context, id, url string) (*entity.User, error)

	// AddFriendship inserts both directions of the friendship. Existing rows are kept,
	// so retries never create duplicates.
	AddFriendship(ctx context.Context, a, b string) error
	AreFriends(ctx context.Context, a, b string) (bool, error)
	ListFriends(ctx context.Context, userID string) ([]*entity.User, error)

	// ListOnboarded returns onboarded users not in exclude, newest first, at most limit rows.
	ListOnboarded(ctx context.Context, exclude []string, limit int) ([]*entity.User, error)
}

// Transactor runs fn in a single unit of work. Repositories called with the ctx
// handed to fn participate in the same transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
