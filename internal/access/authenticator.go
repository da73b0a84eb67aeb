package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "orderhub/internal/errors"
	"orderhub/internal/model"
)

// TokenValidator validates a bearer token and returns its subject.
type TokenValidator interface {
	Validate(token string) (uint, error)
}

// UserFinder looks up the user named by a token subject.
type UserFinder interface {
	GetUser(ctx context.Context, id uint) (*model.User, error)
}

// Authenticator turns bearer tokens into principals.
type Authenticator struct {
	tokens TokenValidator
	users  UserFinder
}

// NewAuthenticator creates an authenticator.
func NewAuthenticator(tokens TokenValidator, users UserFinder) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Authenticate fails closed: every token problem and unknown subject is an
// Unauthorized domain error. Lookup failures other than not-found are returned
// wrapped so the caller can report them as internal errors.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.ErrMissingToken
	}

	userID, err := a.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			return nil, err
		}
		return nil, apperrors.ErrInvalidToken.WithCause(err)
	}

	user, err := a.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUnknownPrincipal
		}
		return nil, fmt.Errorf("resolve principal %d: %w", userID, err)
	}
	return FromUser(user), nil
}
