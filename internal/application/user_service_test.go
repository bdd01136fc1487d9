package application_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/langbridge/internal/application"
	"github.com/oksasatya/langbridge/internal/domain/entity"
	"github.com/oksasatya/langbridge/internal/infrastructure/memory"
	"github.com/oksasatya/langbridge/pkg/helpers"
	"github.com/oksasatya/langbridge/pkg/mailer"
)

type recordingPresence struct {
	mu    sync.Mutex
	users []application.PresenceUser
	err   error
}

func (p *recordingPresence) UpsertUser(_ context.Context, u application.PresenceUser) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = append(p.users, u)
	return p.err
}

type recordingIndex struct {
	indexed []string
}

func (x *recordingIndex) Index(_ context.Context, u *entity.User) error {
	x.indexed = append(x.indexed, u.ID)
	return nil
}

func (x *recordingIndex) Search(_ context.Context, q string, size int) ([]map[string]any, error) {
	return []map[string]any{{"q": q, "size": size}}, nil
}

type recordingJobs struct {
	jobs []any
}

func (j *recordingJobs) PublishJSON(_ context.Context, body any) error {
	j.jobs = append(j.jobs, body)
	return nil
}

type staticChat struct{}

func (staticChat) CreateToken(userID string) (string, error) { return "chat-" + userID, nil }

type memoryUploads struct {
	paths []string
}

func (m *memoryUploads) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	m.paths = append(m.paths, objectPath)
	return "https://cdn.example.com/" + objectPath, nil
}

type userFixture struct {
	store    *memory.Store
	svc      *application.UserService
	presence *recordingPresence
	index    *recordingIndex
	jobs     *recordingJobs
	uploads  *memoryUploads
}

func newUserFixture() *userFixture {
	store := memory.NewStore()
	f := &userFixture{
		store:    store,
		presence: &recordingPresence{},
		index:    &recordingIndex{},
		jobs:     &recordingJobs{},
		uploads:  &memoryUploads{},
	}
	f.svc = application.NewUserService(application.UserServiceDeps{
		Repo:      store.Users(),
		JWT:       helpers.NewJWTManager("access", "refresh", time.Hour, 24*time.Hour),
		Sessions:  store.Sessions(),
		Presence:  f.presence,
		Chat:      staticChat{},
		Index:     f.index,
		Avatars:   f.uploads,
		Jobs:      f.jobs,
		ClientURL: "http://localhost:5173",
	})
	return f
}

func (f *userFixture) signup(t *testing.T, email string) (*entity.User, application.TokenPair) {
	t.Helper()
	u, pair, err := f.svc.Signup(context.Background(), application.SignupInput{FullName: "Ana Lopez", Email: email, Password: "secret1"})
	require.NoError(t, err)
	return u, pair
}

func TestSignup_CreatesUserAndSideEffects(t *testing.T) {
	f := newUserFixture()
	u, pair := f.signup(t, "  Ana@Example.com ")

	assert.Equal(t, "ana@example.com", u.Email)
	assert.False(t, u.IsOnboarded)
	assert.Regexp(t, `^https://avatar\.iran\.liara\.run/public/\d+\.png$`, u.ProfilePic)
	assert.NotEqual(t, "secret1", u.Password)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	require.Len(t, f.presence.users, 1)
	assert.Equal(t, application.PresenceUser{ID: u.ID, Name: "Ana Lopez", Image: u.ProfilePic}, f.presence.users[0])
	assert.Equal(t, []string{u.ID}, f.index.indexed)
	require.Len(t, f.jobs.jobs, 1)
	job, ok := f.jobs.jobs[0].(mailer.EmailJob)
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", job.To)
	assert.Equal(t, mailer.TemplateWelcome, job.Template)

	sid, err := f.store.Sessions().SessionID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, sid)
}

func TestSignup_Validation(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	for _, email := range []string{"not-an-email", "@example.com", "ana@@example.com", ""} {
		_, _, err := f.svc.Signup(ctx, application.SignupInput{FullName: "x", Email: email, Password: "secret1"})
		assert.ErrorIs(t, err, application.ErrInvalidEmail, email)
	}

	_, _, err := f.svc.Signup(ctx, application.SignupInput{FullName: "x", Email: "x@example.com", Password: "12345"})
	assert.ErrorIs(t, err, application.ErrWeakPassword)

	_, _, err = f.svc.Signup(ctx, application.SignupInput{FullName: "x", Email: "x@example.com", Password: strings.Repeat("p", 73)})
	assert.ErrorIs(t, err, application.ErrLongPassword)

	f.signup(t, "dup@example.com")
	_, _, err = f.svc.Signup(ctx, application.SignupInput{FullName: "x", Email: "DUP@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, application.ErrEmailTaken)
}

func TestSignup_PresenceFailureDoesNotFail(t *testing.T) {
	f := newUserFixture()
	f.presence.err = errors.New("provider down")
	u, _ := f.signup(t, "ana@example.com")
	assert.NotEmpty(t, u.ID)
}

func TestLogin(t *testing.T) {
	f := newUserFixture()
	f.signup(t, "ana@example.com")
	ctx := context.Background()

	u, pair, err := f.svc.Login(ctx, "ANA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEmpty(t, pair.AccessToken)

	_, _, err = f.svc.Login(ctx, "ana@example.com", "wrong-pass")
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)
	_, _, err = f.svc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)
}

func TestRefresh_RotatesSession(t *testing.T) {
	f := newUserFixture()
	u, pair := f.signup(t, "ana@example.com")
	ctx := context.Background()

	next, uid, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)
	assert.NotEmpty(t, next.RefreshToken)

	// The old refresh token belongs to the replaced session.
	_, _, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)

	require.NoError(t, f.svc.Logout(ctx, entity.AuthContext{UserID: u.ID}))
	_, _, err = f.svc.Refresh(ctx, next.RefreshToken)
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)
}

func TestOnboard(t *testing.T) {
	f := newUserFixture()
	u, _ := f.signup(t, "ana@example.com")
	ctx := context.Background()
	auth := entity.AuthContext{UserID: u.ID}

	_, err := f.svc.Onboard(ctx, auth, application.OnboardInput{FullName: "Ana", Bio: "hi"})
	assert.ErrorIs(t, err, application.ErrIncompleteProfile)

	out, err := f.svc.Onboard(ctx, auth, application.OnboardInput{
		FullName:         "Ana Lopez",
		Bio:              "Learning German",
		NativeLanguage:   "Spanish",
		LearningLanguage: " German ",
		Location:         "Madrid",
	})
	require.NoError(t, err)
	assert.True(t, out.IsOnboarded)
	assert.Equal(t, "spanish", out.NativeLanguage)
	assert.Equal(t, "german", out.LearningLanguage)
	assert.Equal(t, u.ProfilePic, out.ProfilePic)
	assert.Len(t, f.presence.users, 2)

	_, err = f.svc.Onboard(ctx, entity.AuthContext{UserID: "ghost"}, application.OnboardInput{
		FullName: "a", Bio: "b", NativeLanguage: "c", LearningLanguage: "d", Location: "e",
	})
	assert.ErrorIs(t, err, application.ErrUserNotFound)
}

func TestUploadAvatar(t *testing.T) {
	f := newUserFixture()
	u, _ := f.signup(t, "ana@example.com")
	ctx := context.Background()

	url, err := f.svc.UploadAvatar(ctx, entity.AuthContext{UserID: u.ID}, strings.NewReader("png"), "Me.PNG", "image/png")
	require.NoError(t, err)
	require.Len(t, f.uploads.paths, 1)
	assert.True(t, strings.HasPrefix(f.uploads.paths[0], "avatars/"+u.ID+"/"))
	assert.True(t, strings.HasSuffix(f.uploads.paths[0], ".png"))

	me, err := f.svc.Me(ctx, entity.AuthContext{UserID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, url, me.ProfilePic)
}

func TestSearchAndChatToken(t *testing.T) {
	f := newUserFixture()
	u, _ := f.signup(t, "ana@example.com")
	ctx := context.Background()

	res, err := f.svc.SearchUsers(ctx, "german", 500)
	require.NoError(t, err)
	assert.Equal(t, 10, res[0]["size"])

	tok, err := f.svc.ChatToken(ctx, entity.AuthContext{UserID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, "chat-"+u.ID, tok)

	f.svc.Chat = nil
	_, err = f.svc.ChatToken(ctx, entity.AuthContext{UserID: u.ID})
	assert.ErrorIs(t, err, application.ErrChatUnavailable)
}
