package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"orderhub/internal/cache"
	apperrors "orderhub/internal/errors"
	"orderhub/internal/model"
	"orderhub/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserService resolves users by id, read-through cached in redis.
type UserService interface {
	GetUser(ctx context.Context, id uint) (*model.User, error)
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
// A nil cache disables caching.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

// cachedUser carries the fields needed to build a principal. The password
// hash is never written to the cache.
type cachedUser struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Activated bool   `json:"activated"`
	Admin     bool   `json:"admin"`
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached cachedUser
		if err := json.Unmarshal(data, &cached); err == nil && cached.ID == id {
			return &model.User{
				ID:        cached.ID,
				Name:      cached.Name,
				Email:     cached.Email,
				Activated: cached.Activated,
				Admin:     cached.Admin,
			}, nil
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}

	payload, err := json.Marshal(cachedUser{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Activated: user.Activated,
		Admin:     user.Admin,
	})
	if err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}
