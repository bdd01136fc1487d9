package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/langbridge/internal/domain/entity"
	"github.com/oksasatya/langbridge/internal/domain/notification"
	repo "github.com/oksasatya/langbridge/internal/domain/repository"
	"github.com/oksasatya/langbridge/pkg/helpers"
	"github.com/oksasatya/langbridge/pkg/metrics"
)

const (
	DefaultRecommendLimit = 20
	MaxRecommendLimit     = 50
)

// FriendService owns friend request state transitions and the friendship side effect.
type FriendService struct {
	Users    repo.UserRepository
	Requests repo.FriendRequestRepository
	Tx       repo.Transactor
	Logger   *logrus.Logger
	Now      func() time.Time
}

func NewFriendService(users repo.UserRepository, requests repo.FriendRequestRepository, tx repo.Transactor, logger *logrus.Logger) *FriendService {
	if logger == nil {
		logger = helpers.NopLogger()
	}
	return &FriendService{Users: users, Requests: requests, Tx: tx, Logger: logger, Now: time.Now}
}

// Send creates a pending request from the caller to recipientID.
func (s *FriendService) Send(ctx context.Context, auth entity.AuthContext, recipientID string) (*entity.FriendRequest, error) {
	return observe("send")(s.send(ctx, auth, recipientID))
}

func (s *FriendService) send(ctx context.Context, auth entity.AuthContext, recipientID string) (*entity.FriendRequest, error) {
	if auth.UserID == recipientID {
		return nil, ErrSelfRequest
	}
	if _, err := s.Users.GetByID(ctx, recipientID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internal("get recipient", err)
	}
	friends, err := s.Users.AreFriends(ctx, auth.UserID, recipientID)
	if err != nil {
		return nil, internal("check friendship", err)
	}
	if friends {
		return nil, ErrAlreadyFriends
	}
	if _, err := s.Requests.FindBetween(ctx, auth.UserID, recipientID); err == nil {
		return nil, ErrDuplicateRequest
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, internal("find request", err)
	}

	now := s.Now().UTC()
	fr := &entity.FriendRequest{
		ID:          uuid.NewString(),
		SenderID:    auth.UserID,
		RecipientID: recipientID,
		Status:      entity.FriendRequestPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	// The pair index catches a concurrent send that slipped past FindBetween.
	if err := s.Requests.Create(ctx, fr); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateRequest
		}
		return nil, internal("create request", err)
	}
	s.Logger.WithFields(logrus.Fields{"request_id": fr.ID, "sender_id": fr.SenderID, "recipient_id": fr.RecipientID}).Info("friend request sent")
	return fr, nil
}

// Accept moves a pending request to accepted and befriends both users.
func (s *FriendService) Accept(ctx context.Context, auth entity.AuthContext, requestID string) (*entity.FriendRequest, error) {
	return observe("accept")(s.resolve(ctx, auth, requestID, entity.FriendRequestPending, entity.FriendRequestAccepted))
}

// AcceptRejected is the "accept now" path: a request the caller rejected earlier
// becomes accepted, with the same friendship side effect as Accept.
func (s *FriendService) AcceptRejected(ctx context.Context, auth entity.AuthContext, requestID string) (*entity.FriendRequest, error) {
	return observe("accept_now")(s.resolve(ctx, auth, requestID, entity.FriendRequestRejected, entity.FriendRequestAccepted))
}

// Reject moves a pending request to rejected.
func (s *FriendService) Reject(ctx context.Context, auth entity.AuthContext, requestID string) (*entity.FriendRequest, error) {
	return observe("reject")(s.resolve(ctx, auth, requestID, entity.FriendRequestPending, entity.FriendRequestRejected))
}

// observe counts the outcome of a lifecycle operation and passes its result through.
func observe(op string) func(*entity.FriendRequest, error) (*entity.FriendRequest, error) {
	return func(fr *entity.FriendRequest, err error) (*entity.FriendRequest, error) {
		outcome := "ok"
		if err != nil {
			outcome = KindOf(err).String()
		}
		metrics.FriendRequestOps.WithLabelValues(op, outcome).Inc()
		return fr, err
	}
}

func (s *FriendService) resolve(ctx context.Context, auth entity.AuthContext, requestID string, from, to entity.FriendRequestStatus) (*entity.FriendRequest, error) {
	fr, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if fr.RecipientID != auth.UserID {
		return nil, ErrForbidden
	}
	if fr.Status != from {
		return nil, transitionError(fr.Status, from)
	}

	var out *entity.FriendRequest
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		updated, err := s.Requests.Transition(ctx, requestID, from, to, s.Now().UTC())
		if err != nil {
			return err
		}
		if to == entity.FriendRequestAccepted {
			if err := s.Users.AddFriendship(ctx, updated.SenderID, updated.RecipientID); err != nil {
				return internal("add friendship", err)
			}
		}
		out = updated
		return nil
	})
	if errors.Is(err, repo.ErrStaleStatus) {
		// Lost a race with another transition on the same request.
		current, lErr := s.load(ctx, requestID)
		if lErr != nil {
			return nil, lErr
		}
		return nil, transitionError(current.Status, from)
	}
	if err != nil {
		if KindOf(err) != KindInternal {
			return nil, err
		}
		return nil, internal("transition request", err)
	}
	s.Logger.WithFields(logrus.Fields{"request_id": out.ID, "from": from, "to": to}).Info("friend request resolved")
	return out, nil
}

func (s *FriendService) load(ctx context.Context, requestID string) (*entity.FriendRequest, error) {
	fr, err := s.Requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, internal("get request", err)
	}
	return fr, nil
}

// transitionError names the status that blocked a transition expecting from.
func transitionError(current, from entity.FriendRequestStatus) error {
	switch current {
	case entity.FriendRequestAccepted:
		return ErrAlreadyAccepted
	case entity.FriendRequestRejected:
		if from == entity.FriendRequestPending {
			return ErrAlreadyRejected
		}
	case entity.FriendRequestPending:
		if from == entity.FriendRequestRejected {
			return ErrNotRejected
		}
	}
	return ErrAlreadyAccepted
}

// Buckets are the caller's friend requests split by role and status.
type Buckets struct {
	Incoming         []*entity.FriendRequest `json:"incoming_requests"`
	AcceptedIncoming []*entity.FriendRequest `json:"accepted_requests"`
	RejectedIncoming []*entity.FriendRequest `json:"rejected_requests"`
	OutgoingPending  []*entity.FriendRequest `json:"outgoing_pending_requests"`
	OutgoingAccepted []*entity.FriendRequest `json:"outgoing_accepted_requests"`
	OutgoingRejected []*entity.FriendRequest `json:"outgoing_rejected_requests"`
}

// ListForUser loads every bucket for the caller.
func (s *FriendService) ListForUser(ctx context.Context, auth entity.AuthContext) (*Buckets, error) {
	var b Buckets
	queries := []struct {
		dst    *[]*entity.FriendRequest
		role   repo.Role
		status entity.FriendRequestStatus
	}{
		{&b.Incoming, repo.RoleRecipient, entity.FriendRequestPending},
		{&b.AcceptedIncoming, repo.RoleRecipient, entity.FriendRequestAccepted},
		{&b.RejectedIncoming, repo.RoleRecipient, entity.FriendRequestRejected},
		{&b.OutgoingPending, repo.RoleSender, entity.FriendRequestPending},
		{&b.OutgoingAccepted, repo.RoleSender, entity.FriendRequestAccepted},
		{&b.OutgoingRejected, repo.RoleSender, entity.FriendRequestRejected},
	}
	for _, q := range queries {
		list, err := s.Requests.List(ctx, repo.ListFilter{UserID: auth.UserID, Role: q.role, Status: q.status})
		if err != nil {
			return nil, internal("list requests", err)
		}
		if list == nil {
			list = []*entity.FriendRequest{}
		}
		*q.dst = list
	}
	return &b, nil
}

// Notifications builds the caller's feed from the current buckets and the
// client's seen set.
func (s *FriendService) Notifications(ctx context.Context, auth entity.AuthContext, seen notification.SeenSet) (notification.Feed, error) {
	b, err := s.ListForUser(ctx, auth)
	if err != nil {
		return notification.Feed{}, err
	}
	src := notification.Sources{
		ViewerID: auth.UserID,
		Incoming: b.Incoming,
		Outgoing: b.OutgoingPending,
		Accepted: append(append([]*entity.FriendRequest{}, b.AcceptedIncoming...), b.OutgoingAccepted...),
		Rejected: append(append([]*entity.FriendRequest{}, b.RejectedIncoming...), b.OutgoingRejected...),
	}
	return notification.Build(src, seen), nil
}

// RejectedView splits rejected requests into those the caller rejected and
// those rejected by others.
type RejectedView struct {
	RejectedByMe     []*entity.FriendRequest `json:"rejected_by_me"`
	RejectedByOthers []*entity.FriendRequest `json:"rejected_by_others"`
}

func (s *FriendService) Rejected(ctx context.Context, auth entity.AuthContext) (*RejectedView, error) {
	byMe, err := s.Requests.List(ctx, repo.ListFilter{UserID: auth.UserID, Role: repo.RoleRecipient, Status: entity.FriendRequestRejected})
	if err != nil {
		return nil, internal("list rejected", err)
	}
	byOthers, err := s.Requests.List(ctx, repo.ListFilter{UserID: auth.UserID, Role: repo.RoleSender, Status: entity.FriendRequestRejected})
	if err != nil {
		return nil, internal("list rejected", err)
	}
	if byMe == nil {
		byMe = []*entity.FriendRequest{}
	}
	if byOthers == nil {
		byOthers = []*entity.FriendRequest{}
	}
	return &RejectedView{RejectedByMe: byMe, RejectedByOthers: byOthers}, nil
}

// Friends lists the caller's friends.
func (s *FriendService) Friends(ctx context.Context, auth entity.AuthContext) ([]*entity.User, error) {
	users, err := s.Users.ListFriends(ctx, auth.UserID)
	if err != nil {
		return nil, internal("list friends", err)
	}
	return users, nil
}

// Recommend returns onboarded users the caller has no tie with yet: not self, not
// a friend, and no pending or accepted request in either direction. Users behind
// a rejected request may come back.
func (s *FriendService) Recommend(ctx context.Context, auth entity.AuthContext, limit int) ([]*entity.User, error) {
	if limit <= 0 {
		limit = DefaultRecommendLimit
	}
	if limit > MaxRecommendLimit {
		limit = MaxRecommendLimit
	}
	me, err := s.Users.GetByID(ctx, auth.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internal("get user", err)
	}
	connected, err := s.Requests.ConnectedUserIDs(ctx, auth.UserID, entity.FriendRequestPending, entity.FriendRequestAccepted)
	if err != nil {
		return nil, internal("connected users", err)
	}

	exclude := make([]string, 0, 1+len(me.Friends)+len(connected))
	seen := make(map[string]struct{})
	for _, id := range append(append([]string{me.ID}, me.Friends...), connected...) {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		exclude = append(exclude, id)
	}

	users, err := s.Users.ListOnboarded(ctx, exclude, limit)
	if err != nil {
		return nil, internal("list onboarded", err)
	}
	return users, nil
}
