package memory

import (
	"context"
	"sort"
	"time"

	"github.com/oksasatya/langbridge/internal/domain/entity"
	"github.com/oksasatya/langbridge/internal/domain/repository"
)

type requestRepo Store

func (r *requestRepo) store() *Store { return (*Store)(r) }

func (r *requestRepo) Create(_ context.Context, fr *entity.FriendRequest) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entity.PairKey(fr.SenderID, fr.RecipientID)
	if _, exists := s.pairs[key]; exists {
		return repository.ErrDuplicate
	}
	c := *fr
	c.Sender, c.Recipient = nil, nil
	s.requests[fr.ID] = &c
	s.pairs[key] = fr.ID
	return nil
}

func (r *requestRepo) GetByID(_ context.Context, id string) (*entity.FriendRequest, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	fr, ok := s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *fr
	return &c, nil
}

func (r *requestRepo) FindBetween(_ context.Context, a, b string) (*entity.FriendRequest, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.pairs[entity.PairKey(a, b)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *s.requests[id]
	return &c, nil
}

func (r *requestRepo) Transition(_ context.Context, id string, from, to entity.FriendRequestStatus, at time.Time) (*entity.FriendRequest, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	fr, ok := s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if fr.Status != from {
		return nil, repository.ErrStaleStatus
	}
	fr.Status = to
	fr.UpdatedAt = at.UTC()
	c := *fr
	return &c, nil
}

func (r *requestRepo) List(_ context.Context, f repository.ListFilter) ([]*entity.FriendRequest, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.FriendRequest, 0)
	for _, fr := range s.requests {
		if fr.Status != f.Status {
			continue
		}
		if (f.Role == repository.RoleSender && fr.SenderID != f.UserID) ||
			(f.Role == repository.RoleRecipient && fr.RecipientID != f.UserID) {
			continue
		}
		c := *fr
		if u, ok := s.users[fr.SenderID]; ok {
			c.Sender = u.Summary()
		}
		if u, ok := s.users[fr.RecipientID]; ok {
			c.Recipient = u.Summary()
		}
		out = append(out, &c)
	}
	byCreated := f.Status == entity.FriendRequestPending
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].UpdatedAt, out[j].UpdatedAt
		if byCreated {
			ti, tj = out[i].CreatedAt, out[j].CreatedAt
		}
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *requestRepo) ConnectedUserIDs(_ context.Context, userID string, statuses ...entity.FriendRequestStatus) ([]string, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[entity.FriendRequestStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}
	out := make([]string, 0)
	for _, fr := range s.requests {
		if fr.Involves(userID) && want[fr.Status] {
			out = append(out, fr.Counterpart(userID))
		}
	}
	sort.Strings(out)
	return out, nil
}

var _ repository.FriendRequestRepository = (*requestRepo)(nil)
