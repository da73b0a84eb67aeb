package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "orderhub/internal/errors"
	"orderhub/internal/events"
	"orderhub/internal/model"
	"orderhub/internal/repository"
)

// memUserRepository keeps users in memory. Writes become visible on commit and
// LockAdminBootstrap holds a mutex until the transaction ends, mirroring a row
// lock. AdminExists waits for a second caller so that, without the lock, two
// bootstraps would both read the pre-commit state.
type memUserRepository struct {
	bootstrap sync.Mutex

	mu       sync.Mutex
	users    map[string]*model.User
	nextID   uint
	arrivals int
	both     chan struct{}
}

func newMemUserRepository() *memUserRepository {
	return &memUserRepository{users: map[string]*model.User{}, both: make(chan struct{})}
}

func (r *memUserRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.UserRepository) error) error {
	tx := &memUserTx{repo: r}
	err := fn(ctx, tx)
	if err == nil {
		r.mu.Lock()
		for _, u := range tx.pending {
			r.nextID++
			u.ID = r.nextID
			r.users[u.Email] = u
		}
		r.mu.Unlock()
	}
	if tx.locked {
		r.bootstrap.Unlock()
	}
	return err
}

func (r *memUserRepository) Create(ctx context.Context, user *model.User) error {
	return r.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		return repo.Create(ctx, user)
	})
}

func (r *memUserRepository) FindByID(_ context.Context, id uint) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepository) AdminExists(context.Context) (bool, error) {
	r.mu.Lock()
	r.arrivals++
	if r.arrivals == 2 {
		close(r.both)
	}
	r.mu.Unlock()

	select {
	case <-r.both:
	case <-time.After(100 * time.Millisecond):
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Admin {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepository) LockAdminBootstrap(context.Context) error {
	r.bootstrap.Lock()
	return nil
}

type memUserTx struct {
	repo    *memUserRepository
	pending []*model.User
	locked  bool
}

func (t *memUserTx) Create(_ context.Context, user *model.User) error {
	t.pending = append(t.pending, user)
	return nil
}

func (t *memUserTx) FindByID(ctx context.Context, id uint) (*model.User, error) {
	return t.repo.FindByID(ctx, id)
}

func (t *memUserTx) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return t.repo.FindByEmail(ctx, email)
}

func (t *memUserTx) AdminExists(ctx context.Context) (bool, error) {
	return t.repo.AdminExists(ctx)
}

func (t *memUserTx) LockAdminBootstrap(ctx context.Context) error {
	if t.locked {
		return nil
	}
	if err := t.repo.LockAdminBootstrap(ctx); err != nil {
		return err
	}
	t.locked = true
	return nil
}

func (t *memUserTx) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.UserRepository) error) error {
	return fn(ctx, t)
}

func TestAuthService_ConcurrentAdminBootstrap(t *testing.T) {
	repo := newMemUserRepository()
	service := NewAuthService(repo, newTestJWT(t), events.NopPublisher{}, nil)

	emails := []string{"first@example.com", "second@example.com"}
	errs := make([]error, len(emails))

	var wg sync.WaitGroup
	for i, email := range emails {
		wg.Add(1)
		go func(i int, email string) {
			defer wg.Done()
			_, errs[i] = service.Signup(context.Background(), SignupInput{
				Email: email, Password: "password123", Admin: true,
			}, nil)
		}(i, email)
	}
	wg.Wait()

	var succeeded, denied int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, apperrors.ErrAdminBootstrapDenied):
			denied++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, denied)

	admins := 0
	for _, email := range emails {
		if u, err := repo.FindByEmail(context.Background(), email); err == nil {
			require.True(t, u.Admin)
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}
