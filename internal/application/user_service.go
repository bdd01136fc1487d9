package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/langbridge/internal/domain/entity"
	repo "github.com/oksasatya/langbridge/internal/domain/repository"
	"github.com/oksasatya/langbridge/pkg/helpers"
	"github.com/oksasatya/langbridge/pkg/mailer"
	mailtpl "github.com/oksasatya/langbridge/pkg/mailer/templates"
	"github.com/oksasatya/langbridge/pkg/validation"
)

const (
	presenceTimeout = 5 * time.Second
	avatarURLFormat = "https://avatar.iran.liara.run/public/%d.png"
)

// UserService covers signup, login, sessions and the user's own profile.
type UserService struct {
	Repo      repo.UserRepository
	JWT       *helpers.JWTManager
	Sessions  SessionStore
	Presence  PresenceDirectory
	Chat      ChatTokenIssuer
	Index     UserIndexer
	Avatars   ObjectStore
	Jobs      JobPublisher
	ClientURL string
	Logger    *logrus.Logger
}

type UserServiceDeps struct {
	Repo      repo.UserRepository
	JWT       *helpers.JWTManager
	Sessions  SessionStore
	Presence  PresenceDirectory
	Chat      ChatTokenIssuer
	Index     UserIndexer
	Avatars   ObjectStore
	Jobs      JobPublisher
	ClientURL string
	Logger    *logrus.Logger
}

func NewUserService(d UserServiceDeps) *UserService {
	if d.Logger == nil {
		d.Logger = helpers.NopLogger()
	}
	return &UserService{
		Repo:      d.Repo,
		JWT:       d.JWT,
		Sessions:  d.Sessions,
		Presence:  d.Presence,
		Chat:      d.Chat,
		Index:     d.Index,
		Avatars:   d.Avatars,
		Jobs:      d.Jobs,
		ClientURL: d.ClientURL,
		Logger:    d.Logger,
	}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

type SignupInput struct {
	FullName string
	Email    string
	Password string
}

// Signup creates a not yet onboarded user with a random avatar and opens a session.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*entity.User, TokenPair, error) {
	email := entity.NormalizeEmail(in.Email)
	if validation.Var(email, "required,email") != nil {
		return nil, TokenPair{}, ErrInvalidEmail
	}
	if validation.Var(in.Password, "pwd") != nil {
		return nil, TokenPair{}, ErrWeakPassword
	}
	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return nil, TokenPair{}, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, TokenPair{}, internal("lookup email", err)
	}

	hash, err := helpers.HashPassword(in.Password)
	if errors.Is(err, helpers.ErrPasswordTooLong) {
		return nil, TokenPair{}, ErrLongPassword
	}
	if err != nil {
		return nil, TokenPair{}, internal("hash password", err)
	}
	u := &entity.User{
		ID:         uuid.NewString(),
		FullName:   strings.TrimSpace(in.FullName),
		Email:      email,
		Password:   hash,
		ProfilePic: fmt.Sprintf(avatarURLFormat, rand.Intn(100)+1),
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, TokenPair{}, ErrEmailTaken
		}
		return nil, TokenPair{}, internal("create user", err)
	}

	s.syncPresence(ctx, u)
	s.indexUser(ctx, u)
	s.enqueueWelcome(ctx, u)

	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CheckPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// IssueTokens generates access/refresh tokens and records the session.
func (s *UserService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.signPair(u.ID, sid)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate tokens failed")
		return TokenPair{}, internal("generate tokens", err)
	}
	if s.Sessions != nil {
		fields := map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"full_name":  u.FullName,
			"sid":        sid,
			"created_at": nowRFC3339(),
		}
		if err := s.Sessions.Save(ctx, u.ID, fields); err != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("session save failed")
		}
	}
	return pair, nil
}

func (s *UserService) signPair(userID, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Refresh rotates the session id and both tokens.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if s.Sessions != nil {
		sid, sErr := s.Sessions.SessionID(ctx, u.ID)
		if sErr != nil || sid != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}
	sid := uuid.NewString()
	pair, err := s.signPair(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", internal("generate tokens", err)
	}
	if s.Sessions != nil {
		if err := s.Sessions.Save(ctx, u.ID, map[string]any{"sid": sid, "updated_at": nowRFC3339()}); err != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("session rotate failed")
		}
	}
	return pair, u.ID, nil
}

func (s *UserService) Logout(ctx context.Context, auth entity.AuthContext) error {
	if s.Sessions == nil {
		return nil
	}
	if err := s.Sessions.Delete(ctx, auth.UserID); err != nil {
		return internal("delete session", err)
	}
	return nil
}

// Me returns the authenticated user.
func (s *UserService) Me(ctx context.Context, auth entity.AuthContext) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, auth.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internal("get user", err)
	}
	return u, nil
}

type OnboardInput struct {
	FullName         string
	Bio              string
	NativeLanguage   string
	LearningLanguage string
	Location         string
	ProfilePic       string
}

func (in OnboardInput) complete() bool {
	for _, v := range []string{in.FullName, in.Bio, in.NativeLanguage, in.LearningLanguage, in.Location} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// Onboard completes the profile and marks the user onboarded.
func (s *UserService) Onboard(ctx context.Context, auth entity.AuthContext, in OnboardInput) (*entity.User, error) {
	if !in.complete() {
		return nil, ErrIncompleteProfile
	}
	u, err := s.Repo.UpdateProfile(ctx, auth.UserID, repo.ProfileUpdate{
		FullName:         strings.TrimSpace(in.FullName),
		Bio:              strings.TrimSpace(in.Bio),
		NativeLanguage:   strings.ToLower(strings.TrimSpace(in.NativeLanguage)),
		LearningLanguage: strings.ToLower(strings.TrimSpace(in.LearningLanguage)),
		Location:         strings.TrimSpace(in.Location),
		ProfilePic:       strings.TrimSpace(in.ProfilePic),
	})
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, internal("update profile", err)
	}

	s.syncPresence(ctx, u)
	s.indexUser(ctx, u)
	return u, nil
}

// UploadAvatar stores a new profile picture and points the profile at it.
func (s *UserService) UploadAvatar(ctx context.Context, auth entity.AuthContext, r io.Reader, filename, contentType string) (string, error) {
	if s.Avatars == nil {
		return "", ErrUploadUnavailable
	}
	if _, err := s.Me(ctx, auth); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", auth.UserID, uuid.NewString()+ext))
	url, err := s.Avatars.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		return "", internal("upload avatar", err)
	}
	u, err := s.Repo.SetProfilePic(ctx, auth.UserID, url)
	if errors.Is(err, repo.ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", internal("set profile pic", err)
	}
	s.syncPresence(ctx, u)
	s.indexUser(ctx, u)
	return url, nil
}

// SearchUsers queries the user index. An unconfigured index yields no results.
func (s *UserService) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.Index == nil {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	res, err := s.Index.Search(ctx, q, size)
	if err != nil {
		return nil, internal("search users", err)
	}
	return res, nil
}

// ChatToken mints a chat provider token for the authenticated user.
func (s *UserService) ChatToken(ctx context.Context, auth entity.AuthContext) (string, error) {
	if s.Chat == nil {
		return "", ErrChatUnavailable
	}
	if _, err := s.Me(ctx, auth); err != nil {
		return "", err
	}
	tok, err := s.Chat.CreateToken(auth.UserID)
	if err != nil {
		return "", internal("create chat token", err)
	}
	return tok, nil
}

// syncPresence pushes u to the presence directory. Failures are logged and dropped.
func (s *UserService) syncPresence(ctx context.Context, u *entity.User) {
	if s.Presence == nil {
		return
	}
	c, cancel := context.WithTimeout(ctx, presenceTimeout)
	defer cancel()
	err := s.Presence.UpsertUser(c, PresenceUser{ID: u.ID, Name: u.FullName, Image: u.ProfilePic})
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("presence upsert failed")
	}
}

func (s *UserService) indexUser(ctx context.Context, u *entity.User) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, u); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("user index failed")
	}
}

func (s *UserService) enqueueWelcome(ctx context.Context, u *entity.User) {
	if s.Jobs == nil {
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: mailer.TemplateWelcome,
		Data:     mailtpl.NewWelcomeData(mailtpl.Branding{}, u.FullName, u.Email, s.ClientURL),
	}
	if err := s.Jobs.PublishJSON(ctx, job); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("welcome email enqueue failed")
	}
}
