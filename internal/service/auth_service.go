package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"orderhub/internal/access"
	"orderhub/internal/auth"
	apperrors "orderhub/internal/errors"
	"orderhub/internal/events"
	"orderhub/internal/logger"
	"orderhub/internal/model"
	"orderhub/internal/repository"
)

// TokenTypeBearer is the token_type reported to clients.
const TokenTypeBearer = "Bearer"

// TokenIssuer issues signed access and refresh tokens.
type TokenIssuer interface {
	IssueAccess(userID uint) (string, error)
	IssueRefresh(userID uint) (string, error)
}

// SignupInput is the data needed to register a user.
type SignupInput struct {
	Name      string
	Email     string
	Password  string
	Activated *bool
	Admin     bool
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}

// AuthService handles signup, login and token refresh.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput, current *access.Principal) (*model.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, current *access.Principal) (string, error)
}

type authService struct {
	userRepo  repository.UserRepository
	tokens    TokenIssuer
	publisher events.Publisher
	log       *logger.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, tokens TokenIssuer, publisher events.Publisher, log *logger.Logger) AuthService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &authService{
		userRepo:  userRepo,
		tokens:    tokens,
		publisher: publisher,
		log:       log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup registers a user. Creating an admin is only allowed for the first
// admin or when the caller is already an admin.
func (s *authService) Signup(ctx context.Context, in SignupInput, current *access.Principal) (*model.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperrors.ErrInvalidInput.WithMessage("email and password are required")
	}

	// hashing stays outside the transaction
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	activated := true
	if in.Activated != nil {
		activated = *in.Activated
	}
	user := &model.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Activated:    activated,
		Admin:        in.Admin,
	}

	err = s.userRepo.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		if in.Admin {
			// taken before any read so the admin count below sees every committed bootstrap
			if err := repo.LockAdminBootstrap(ctx); err != nil {
				return fmt.Errorf("lock admin bootstrap: %w", err)
			}
		}

		existing, err := repo.FindByEmail(ctx, email)
		if err == nil && existing != nil {
			return apperrors.ErrEmailTaken
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check email: %w", err)
		}

		if in.Admin {
			adminExists, err := repo.AdminExists(ctx)
			if err != nil {
				return fmt.Errorf("check admin exists: %w", err)
			}
			if !access.AuthorizeAdminBootstrap(in.Admin, adminExists, current) {
				return apperrors.ErrAdminBootstrapDenied
			}
		}

		if err := repo.Create(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrEmailTaken
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user signed up", "user_id", user.ID, "admin", user.Admin)
	s.publisher.Publish(ctx, events.EventUserSignedUp, fmt.Sprint(user.ID), events.UserSignedUpPayload{
		UserID: user.ID,
		Admin:  user.Admin,
	})
	return user, nil
}

// Login checks credentials and issues an access and a refresh token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find user: %w", err)
		}
		auth.BurnVerify(password)
		return nil, apperrors.ErrInvalidCredentials
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	accessToken, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refreshToken, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
	}, nil
}

// Refresh issues a new access token for an already authenticated principal.
func (s *authService) Refresh(ctx context.Context, current *access.Principal) (string, error) {
	if current == nil {
		return "", apperrors.ErrUnauthorized
	}
	token, err := s.tokens.IssueAccess(current.ID)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return token, nil
}
