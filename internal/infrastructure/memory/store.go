// Package memory is an in-process implementation of the repositories, used by
// the memory store driver for local runs and by tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oksasatya/langbridge/internal/domain/entity"
	"github.com/oksasatya/langbridge/internal/domain/repository"
)

// Store keeps users, friendships, friend requests and sessions in maps guarded
// by one mutex, so every single repository call is atomic.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*entity.User
	emails   map[string]string
	friends  map[string]map[string]struct{}
	requests map[string]*entity.FriendRequest
	pairs    map[string]string
	sessions map[string]map[string]any
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]*entity.User),
		emails:   make(map[string]string),
		friends:  make(map[string]map[string]struct{}),
		requests: make(map[string]*entity.FriendRequest),
		pairs:    make(map[string]string),
		sessions: make(map[string]map[string]any),
	}
}

// Users returns the store as a UserRepository.
func (s *Store) Users() repository.UserRepository { return (*userRepo)(s) }

// Requests returns the store as a FriendRequestRepository.
func (s *Store) Requests() repository.FriendRequestRepository { return (*requestRepo)(s) }

// WithinTx runs fn directly. Each repository call is atomic on its own; there is
// no rollback of earlier calls when fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ repository.Transactor = (*Store)(nil)

func (s *Store) friendIDs(userID string) []string {
	set := s.friends[userID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) cloneUser(u *entity.User) *entity.User {
	c := *u
	c.Friends = s.friendIDs(u.ID)
	return &c
}

// ---- users ----

type userRepo Store

func (r *userRepo) store() *Store { return (*Store)(r) }

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.emails[u.Email]; taken {
		return repository.ErrDuplicate
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = u.CreatedAt
	c := *u
	c.Friends = nil
	s.users[u.ID] = &c
	s.emails[u.Email] = u.ID
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.cloneUser(u), nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.cloneUser(s.users[id]), nil
}

func (r *userRepo) GetByIDs(_ context.Context, ids []string) ([]*entity.User, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, s.cloneUser(u))
		}
	}
	return out, nil
}

func (r *userRepo) UpdateProfile(_ context.Context, id string, p repository.ProfileUpdate) (*entity.User, error) {
	return r.mutate(id, func(u *entity.User) {
		u.FullName = p.FullName
		u.Bio = p.Bio
		u.NativeLanguage = p.NativeLanguage
		u.LearningLanguage = p.LearningLanguage
		u.Location = p.Location
		if p.ProfilePic != "" {
			u.ProfilePic = p.ProfilePic
		}
		u.IsOnboarded = true
	})
}

func (r *userRepo) SetProfilePic(_ context.Context, id, url string) (*entity.User, error) {
	return r.mutate(id, func(u *entity.User) { u.ProfilePic = url })
}

// mutate applies fn to the stored user in place under the write lock.
func (r *userRepo) mutate(id string, fn func(*entity.User)) (*entity.User, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	return s.cloneUser(u), nil
}

func (r *userRepo) AddFriendship(_ context.Context, a, b string) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range [][2]string{{a, b}, {b, a}} {
		set, ok := s.friends[p[0]]
		if !ok {
			set = make(map[string]struct{})
			s.friends[p[0]] = set
		}
		set[p[1]] = struct{}{}
	}
	return nil
}

func (r *userRepo) AreFriends(_ context.Context, a, b string) (bool, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.friends[a][b]
	return ok, nil
}

func (r *userRepo) ListFriends(_ context.Context, userID string) ([]*entity.User, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.friendIDs(userID)
	out := make([]*entity.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, s.cloneUser(u))
		}
	}
	return out, nil
}

func (r *userRepo) ListOnboarded(_ context.Context, exclude []string, limit int) ([]*entity.User, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	out := make([]*entity.User, 0)
	for id, u := range s.users {
		if _, ok := skip[id]; ok || !u.IsOnboarded {
			continue
		}
		out = append(out, s.cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ repository.UserRepository = (*userRepo)(nil)
