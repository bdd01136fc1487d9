package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for the user directory.
// Passwords are stored as bcrypt hashes in Password field and never serialized.
//
// Friends is a symmetric set: if A lists B, B lists A. Only the friend request
// lifecycle writes it.
type User struct {
	ID               string
	FullName         string
	Email            string
	Password         string
	ProfilePic       string
	Bio              string
	NativeLanguage   string
	LearningLanguage string
	Location         string
	IsOnboarded      bool
	Friends          []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NormalizeEmail lowercases and trims an email address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasFriend reports whether id is in the user's friend set.
func (u *User) HasFriend(id string) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// Summary returns the public projection embedded in friend request listings.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:               u.ID,
		FullName:         u.FullName,
		ProfilePic:       u.ProfilePic,
		NativeLanguage:   u.NativeLanguage,
		LearningLanguage: u.LearningLanguage,
	}
}

// UserSummary is the subset of a user exposed next to a friend request.
type UserSummary struct {
	ID               string `json:"id"`
	FullName         string `json:"full_name"`
	ProfilePic       string `json:"profile_pic"`
	NativeLanguage   string `json:"native_language"`
	LearningLanguage string `json:"learning_language"`
}

// Profile is the outward representation of a user. It never carries the password hash.
type Profile struct {
	ID               string    `json:"id"`
	FullName         string    `json:"full_name"`
	Email            string    `json:"email"`
	ProfilePic       string    `json:"profile_pic"`
	Bio              string    `json:"bio"`
	NativeLanguage   string    `json:"native_language"`
	LearningLanguage string    `json:"learning_language"`
	Location         string    `json:"location"`
	IsOnboarded      bool      `json:"is_onboarded"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:               u.ID,
		FullName:         u.FullName,
		Email:            u.Email,
		ProfilePic:       u.ProfilePic,
		Bio:              u.Bio,
		NativeLanguage:   u.NativeLanguage,
		LearningLanguage: u.LearningLanguage,
		Location:         u.Location,
		IsOnboarded:      u.IsOnboarded,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

// AuthContext is the identity resolved by the authenticator for one API call.
type AuthContext struct {
	UserID    string
	SessionID string
}
