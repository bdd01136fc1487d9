package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/langbridge/internal/domain/entity"
	"github.com/oksasatya/langbridge/internal/domain/repository"
)

func seedUsers(t *testing.T, s *Store, ids ...string) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range ids {
		require.NoError(t, s.Users().Create(context.Background(), &entity.User{
			ID:          id,
			Email:       id + "@example.com",
			FullName:    id,
			IsOnboarded: true,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func TestUsers_CopiesAndDuplicates(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUsers(t, s, "a")

	err := s.Users().Create(ctx, &entity.User{ID: "a2", Email: "a@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	u, err := s.Users().GetByID(ctx, "a")
	require.NoError(t, err)
	u.FullName = "mutated"
	again, err := s.Users().GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", again.FullName)

	_, err = s.Users().GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUsers_FriendshipIsSymmetricAndIdempotent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUsers(t, s, "a", "b")

	require.NoError(t, s.Users().AddFriendship(ctx, "a", "b"))
	require.NoError(t, s.Users().AddFriendship(ctx, "b", "a"))

	a, _ := s.Users().GetByID(ctx, "a")
	b, _ := s.Users().GetByID(ctx, "b")
	assert.Equal(t, []string{"b"}, a.Friends)
	assert.Equal(t, []string{"a"}, b.Friends)
	ok, err := s.Users().AreFriends(ctx, "b", "a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUsers_ListOnboarded(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUsers(t, s, "a", "b", "c", "d")
	require.NoError(t, s.Users().Create(ctx, &entity.User{ID: "fresh", Email: "fresh@example.com"}))

	out, err := s.Users().ListOnboarded(ctx, []string{"c"}, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "d", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
}

func TestUsers_TargetedUpdatesKeepOtherColumns(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUsers(t, s, "a")
	users := s.Users()

	u, err := users.SetProfilePic(ctx, "a", "https://cdn.example.com/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", u.ProfilePic)

	u, err = users.UpdateProfile(ctx, "a", repository.ProfileUpdate{
		FullName: "Ana", Bio: "hi", NativeLanguage: "spanish", LearningLanguage: "english", Location: "Lima",
	})
	require.NoError(t, err)
	assert.True(t, u.IsOnboarded)
	assert.Equal(t, "https://cdn.example.com/a.png", u.ProfilePic)
	assert.Equal(t, "spanish", u.NativeLanguage)

	_, err = users.SetProfilePic(ctx, "a", "https://cdn.example.com/b.png")
	require.NoError(t, err)
	got, err := users.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.FullName)
	assert.Equal(t, "Lima", got.Location)
	assert.True(t, got.IsOnboarded)
	assert.Equal(t, "https://cdn.example.com/b.png", got.ProfilePic)

	_, err = users.SetProfilePic(ctx, "missing", "x")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = users.UpdateProfile(ctx, "missing", repository.ProfileUpdate{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUsers_ConcurrentOnboardAndAvatar(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUsers(t, s, "a")
	users := s.Users()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := users.UpdateProfile(ctx, "a", repository.ProfileUpdate{
			FullName: "Ana", Bio: "hi", NativeLanguage: "spanish", LearningLanguage: "english", Location: "Lima",
		})
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := users.SetProfilePic(ctx, "a", "https://cdn.example.com/a.png")
		assert.NoError(t, err)
	}()
	wg.Wait()

	got, err := users.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.IsOnboarded)
	assert.Equal(t, "Lima", got.Location)
	assert.Equal(t, "https://cdn.example.com/a.png", got.ProfilePic)
}

func TestRequests_PairUniqueAndTransition(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUsers(t, s, "a", "b")
	repo := s.Requests()

	fr := &entity.FriendRequest{ID: "r1", SenderID: "a", RecipientID: "b", Status: entity.FriendRequestPending}
	require.NoError(t, repo.Create(ctx, fr))
	err := repo.Create(ctx, &entity.FriendRequest{ID: "r2", SenderID: "b", RecipientID: "a", Status: entity.FriendRequestPending})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	found, err := repo.FindBetween(ctx, "b", "a")
	require.NoError(t, err)
	assert.Equal(t, "r1", found.ID)

	at := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	updated, err := repo.Transition(ctx, "r1", entity.FriendRequestPending, entity.FriendRequestRejected, at)
	require.NoError(t, err)
	assert.Equal(t, entity.FriendRequestRejected, updated.Status)
	assert.True(t, at.Equal(updated.UpdatedAt))

	_, err = repo.Transition(ctx, "r1", entity.FriendRequestPending, entity.FriendRequestAccepted, at)
	assert.ErrorIs(t, err, repository.ErrStaleStatus)
	_, err = repo.Transition(ctx, "missing", entity.FriendRequestPending, entity.FriendRequestAccepted, at)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	list, err := repo.List(ctx, repository.ListFilter{UserID: "b", Role: repository.RoleRecipient, Status: entity.FriendRequestRejected})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].Sender.ID)

	ids, err := repo.ConnectedUserIDs(ctx, "a", entity.FriendRequestPending, entity.FriendRequestAccepted)
	require.NoError(t, err)
	assert.Empty(t, ids)
	ids, err = repo.ConnectedUserIDs(ctx, "a", entity.FriendRequestRejected)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestSessions(t *testing.T) {
	s := NewStore().Sessions()
	ctx := context.Background()

	sid, err := s.SessionID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, sid)

	require.NoError(t, s.Save(ctx, "u1", map[string]any{"sid": "s1", "email": "x"}))
	require.NoError(t, s.Save(ctx, "u1", map[string]any{"sid": "s2"}))
	sid, _ = s.SessionID(ctx, "u1")
	assert.Equal(t, "s2", sid)

	require.NoError(t, s.Delete(ctx, "u1"))
	sid, _ = s.SessionID(ctx, "u1")
	assert.Empty(t, sid)
}
