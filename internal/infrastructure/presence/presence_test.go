package presence

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/langbridge/internal/application"
	"github.com/oksasatya/langbridge/pkg/helpers"
	"github.com/oksasatya/langbridge/pkg/metrics"
)

type fakeDirectory struct {
	mu    sync.Mutex
	users []application.PresenceUser
	err   error
}

func (f *fakeDirectory) UpsertUser(_ context.Context, u application.PresenceUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, u)
	return f.err
}

type fakePublisher struct {
	bodies [][]byte
}

func (f *fakePublisher) PublishJSON(_ context.Context, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	f.bodies = append(f.bodies, b)
	return nil
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("provider down")}
	b := NewBreaker(dir, BreakerSettings{MinRequests: 3, FailureRatio: 0.5, OpenTimeout: time.Minute}, nil)

	for i := 0; i < 3; i++ {
		err := b.UpsertUser(context.Background(), application.PresenceUser{ID: "u1"})
		assert.EqualError(t, err, "provider down")
	}
	err := b.UpsertUser(context.Background(), application.PresenceUser{ID: "u1"})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Len(t, dir.users, 3, "open circuit must not reach the provider")
	assert.Equal(t, "open", b.State())
	assert.Equal(t, float64(gobreaker.StateOpen), testutil.ToFloat64(metrics.BreakerState.WithLabelValues("presence-directory")))
}

func TestBreaker_PassesThrough(t *testing.T) {
	dir := &fakeDirectory{}
	b := NewBreaker(dir, DefaultBreakerSettings(), nil)
	require.NoError(t, b.UpsertUser(context.Background(), application.PresenceUser{ID: "u1", Name: "Ana"}))
	assert.Equal(t, []application.PresenceUser{{ID: "u1", Name: "Ana"}}, dir.users)
}

func TestQueueDirectory_RoundTripsThroughHandler(t *testing.T) {
	pub := &fakePublisher{}
	q := NewQueueDirectory(pub)
	require.NoError(t, q.UpsertUser(context.Background(), application.PresenceUser{ID: "u1", Name: "Ana", Image: "pic"}))
	require.Len(t, pub.bodies, 1)

	dir := &fakeDirectory{}
	require.NoError(t, Handler(dir)(context.Background(), pub.bodies[0]))
	assert.Equal(t, []application.PresenceUser{{ID: "u1", Name: "Ana", Image: "pic"}}, dir.users)
}

func TestHandler_DropsMalformedJobs(t *testing.T) {
	h := Handler(&fakeDirectory{})
	assert.ErrorIs(t, h(context.Background(), []byte("{")), helpers.ErrPoisonMessage)
	assert.ErrorIs(t, h(context.Background(), []byte(`{"name":"x"}`)), helpers.ErrPoisonMessage)
}

func TestHandler_RequeuesProviderErrors(t *testing.T) {
	h := Handler(&fakeDirectory{err: errors.New("timeout")})
	err := h(context.Background(), []byte(`{"id":"u1"}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, helpers.ErrPoisonMessage)
}
