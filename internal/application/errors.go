package application

import (
	"errors"
	"fmt"
)

// Kind classifies an application error so the transport layer can map it without
// knowing individual failures.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindForbidden
	KindNotFound
	KindUnauthorized
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindUpstream:
		return "upstream"
	}
	return "internal"
}

// Error is a user-facing failure with a stable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches on code, so wrapped copies compare equal to the sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrSelfRequest      = newError(KindValidation, "self_request", "you cannot send a friend request to yourself")
	ErrAlreadyFriends   = newError(KindConflict, "already_friends", "you are already friends with this user")
	ErrDuplicateRequest = newError(KindConflict, "duplicate_request", "a friend request already exists between you and this user")
	ErrAlreadyAccepted  = newError(KindConflict, "already_accepted", "this friend request has already been accepted")
	ErrAlreadyRejected  = newError(KindConflict, "already_rejected", "this friend request has already been rejected")
	ErrNotRejected      = newError(KindConflict, "not_rejected", "only a rejected friend request can be accepted this way")
	ErrForbidden        = newError(KindForbidden, "forbidden", "you are not the recipient of this friend request")
	ErrRequestNotFound  = newError(KindNotFound, "request_not_found", "friend request not found")
	ErrUserNotFound     = newError(KindNotFound, "user_not_found", "user not found")

	ErrEmailTaken         = newError(KindConflict, "email_taken", "email already exists, try with another one")
	ErrInvalidCredentials = newError(KindUnauthorized, "invalid_credentials", "invalid credentials")
	ErrInvalidEmail       = newError(KindValidation, "invalid_email", "invalid email address")
	ErrWeakPassword       = newError(KindValidation, "weak_password", "password must be at least 6 characters")
	ErrLongPassword       = newError(KindValidation, "long_password", "password must be at most 72 bytes")
	ErrIncompleteProfile  = newError(KindValidation, "incomplete_profile", "all onboarding fields are required")
	ErrUploadUnavailable  = newError(KindUpstream, "upload_unavailable", "avatar upload is not configured")
	ErrChatUnavailable    = newError(KindUpstream, "chat_unavailable", "chat provider is not configured")
)

// KindOf returns the kind of err, KindInternal for anything that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func internal(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
