//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/oksasatya/langbridge/internal/domain/entity"
	"github.com/oksasatya/langbridge/internal/domain/repository"
)

// Usage:
//   go test -tags integration ./internal/infrastructure/postgres/...

var testPool *pgxpool.Pool

func dockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

func TestMain(m *testing.M) {
	if !dockerAvailable() {
		fmt.Println("skipping postgres integration tests: docker not available")
		os.Exit(0)
	}
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "langbridge",
				"POSTGRES_PASSWORD": "langbridge",
				"POSTGRES_DB":       "langbridge",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Println("start postgres container:", err)
		return 1
	}
	defer func() { _ = container.Terminate(ctx) }()

	host, err := container.Host(ctx)
	if err != nil {
		fmt.Println("container host:", err)
		return 1
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		fmt.Println("container port:", err)
		return 1
	}
	dsn := fmt.Sprintf("postgres://langbridge:langbridge@%s:%s/langbridge?sslmode=disable", host, port.Port())

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	if err := RunMigrations(dsn, "../../../db/migrations", logger); err != nil {
		fmt.Println("migrate:", err)
		return 1
	}
	testPool, err = NewPool(ctx, dsn, PoolOptions{MaxConns: 8, MinConns: 1, MaxConnLife: time.Hour, PingAttempts: 5}, logger)
	if err != nil {
		fmt.Println("pool:", err)
		return 1
	}
	defer testPool.Close()
	return m.Run()
}

// resetTables empties every table so each test starts from a clean schema.
func resetTables(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(), `TRUNCATE friend_requests, friendships, users`)
	require.NoError(t, err)
}

func seed(t *testing.T, users *UserRepository, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, users.Create(context.Background(), &entity.User{
			ID:          id,
			Email:       id + "@example.com",
			Password:    "hash",
			FullName:    "User " + id,
			IsOnboarded: true,
		}))
	}
}

func pending(id, from, to string) *entity.FriendRequest {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &entity.FriendRequest{ID: id, SenderID: from, RecipientID: to, Status: entity.FriendRequestPending, CreatedAt: now, UpdatedAt: now}
}

func TestUsers_CreateDuplicateEmail(t *testing.T) {
	resetTables(t)
	users := NewUserRepository(testPool)
	seed(t, users, "a")

	err := users.Create(context.Background(), &entity.User{ID: "b", Email: "a@example.com", Password: "hash"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestRequests_ReversePairIsDuplicate(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	users := NewUserRepository(testPool)
	requests := NewFriendRequestRepository(testPool)
	seed(t, users, "a", "b")

	require.NoError(t, requests.Create(ctx, pending("r1", "a", "b")))
	assert.ErrorIs(t, requests.Create(ctx, pending("r2", "b", "a")), repository.ErrDuplicate)
	assert.ErrorIs(t, requests.Create(ctx, pending("r3", "a", "b")), repository.ErrDuplicate)

	found, err := requests.FindBetween(ctx, "b", "a")
	require.NoError(t, err)
	assert.Equal(t, "r1", found.ID)
}

func TestRequests_TransitionCompareAndSet(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	users := NewUserRepository(testPool)
	requests := NewFriendRequestRepository(testPool)
	seed(t, users, "a", "b")
	require.NoError(t, requests.Create(ctx, pending("r1", "a", "b")))

	at := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	updated, err := requests.Transition(ctx, "r1", entity.FriendRequestPending, entity.FriendRequestAccepted, at)
	require.NoError(t, err)
	assert.Equal(t, entity.FriendRequestAccepted, updated.Status)
	assert.True(t, at.Equal(updated.UpdatedAt), updated.UpdatedAt)

	_, err = requests.Transition(ctx, "r1", entity.FriendRequestPending, entity.FriendRequestRejected, at)
	assert.ErrorIs(t, err, repository.ErrStaleStatus)
	_, err = requests.Transition(ctx, "missing", entity.FriendRequestPending, entity.FriendRequestRejected, at)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got, err := requests.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, entity.FriendRequestAccepted, got.Status)
}

func TestRequests_ConnectedUserIDs(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	users := NewUserRepository(testPool)
	requests := NewFriendRequestRepository(testPool)
	seed(t, users, "a", "b", "c", "d")

	require.NoError(t, requests.Create(ctx, pending("r1", "a", "b")))
	require.NoError(t, requests.Create(ctx, pending("r2", "c", "a")))
	require.NoError(t, requests.Create(ctx, pending("r3", "a", "d")))
	_, err := requests.Transition(ctx, "r3", entity.FriendRequestPending, entity.FriendRequestRejected, time.Now())
	require.NoError(t, err)

	ids, err := requests.ConnectedUserIDs(ctx, "a", entity.FriendRequestPending)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, ids)

	ids, err = requests.ConnectedUserIDs(ctx, "a", entity.FriendRequestRejected)
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, ids)
}

func TestUsers_AddFriendshipIsSymmetricAndIdempotent(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	users := NewUserRepository(testPool)
	seed(t, users, "a", "b")

	require.NoError(t, users.AddFriendship(ctx, "a", "b"))
	require.NoError(t, users.AddFriendship(ctx, "b", "a"))

	ok, err := users.AreFriends(ctx, "b", "a")
	require.NoError(t, err)
	assert.True(t, ok)

	a, err := users.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, a.Friends)
	friends, err := users.ListFriends(ctx, "b")
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "a", friends[0].ID)
}

func TestUsers_TargetedUpdates(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	users := NewUserRepository(testPool)
	seed(t, users, "a")

	_, err := users.SetProfilePic(ctx, "a", "https://cdn.example.com/a.png")
	require.NoError(t, err)
	u, err := users.UpdateProfile(ctx, "a", repository.ProfileUpdate{
		FullName: "Ana", Bio: "hi", NativeLanguage: "spanish", LearningLanguage: "english", Location: "Lima",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", u.ProfilePic)
	assert.Equal(t, "Lima", u.Location)
	assert.True(t, u.IsOnboarded)

	_, err = users.SetProfilePic(ctx, "missing", "x")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	users := NewUserRepository(testPool)
	requests := NewFriendRequestRepository(testPool)
	seed(t, users, "a", "b")
	require.NoError(t, requests.Create(ctx, pending("r1", "a", "b")))

	boom := errors.New("boom")
	err := NewTransactor(testPool).WithinTx(ctx, func(ctx context.Context) error {
		if _, err := requests.Transition(ctx, "r1", entity.FriendRequestPending, entity.FriendRequestAccepted, time.Now()); err != nil {
			return err
		}
		if err := users.AddFriendship(ctx, "a", "b"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := requests.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, entity.FriendRequestPending, got.Status)
	ok, err := users.AreFriends(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)
}
