package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"orderhub/internal/db"
	"orderhub/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open("sqlite://:memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	exists, err := repo.AdminExists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	user := &model.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "h", Activated: true}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)

	found, err := repo.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	found, err = repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", found.Name)
	assert.False(t, found.Admin)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	dup := &model.User{Email: "ana@example.com", PasswordHash: "h"}
	assert.ErrorIs(t, repo.Create(ctx, dup), gorm.ErrDuplicatedKey)

	require.NoError(t, repo.Create(ctx, &model.User{Email: "root@example.com", PasswordHash: "h", Admin: true}))
	exists, err = repo.AdminExists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserRepository_WithTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))
	boom := errors.New("boom")

	err := repo.WithTransaction(ctx, func(ctx context.Context, tx UserRepository) error {
		if err := tx.Create(ctx, &model.User{Email: "gone@example.com", PasswordHash: "h"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.FindByEmail(ctx, "gone@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_LockAdminBootstrap(t *testing.T) {
	ctx := context.Background()
	gdb := openTestDB(t)
	repo := NewUserRepository(gdb)

	for i := 0; i < 2; i++ {
		err := repo.WithTransaction(ctx, func(ctx context.Context, tx UserRepository) error {
			return tx.LockAdminBootstrap(ctx)
		})
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, gdb.Model(&model.Lock{}).Where("name = ?", model.LockAdminBootstrap).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	gdb := openTestDB(t)
	users := NewUserRepository(gdb)
	repo := NewOrderRepository(gdb)

	owner := &model.User{Email: "owner@example.com", PasswordHash: "h"}
	require.NoError(t, users.Create(ctx, owner))

	order := model.NewOrder(owner.ID)
	require.NoError(t, repo.Create(ctx, order))
	require.NotZero(t, order.ID)

	err := repo.WithTransaction(ctx, func(ctx context.Context, tx OrderRepository) error {
		locked, err := tx.FindByIDForUpdate(ctx, order.ID)
		if err != nil {
			return err
		}
		for _, in := range []struct {
			q     int
			price string
		}{{3, "2.50"}, {1, "10.00"}} {
			item, err := locked.AddItem(in.q, "pepperoni", "large", decimal.RequireFromString(in.price))
			if err != nil {
				return err
			}
			if err := tx.CreateItem(ctx, item); err != nil {
				return err
			}
		}
		return tx.UpdatePrice(ctx, locked)
	})
	require.NoError(t, err)

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.Less(t, stored.Items[0].ID, stored.Items[1].ID)
	assert.True(t, decimal.RequireFromString("17.50").Equal(stored.Price), "got %s", stored.Price)

	item, err := repo.FindItemByID(ctx, stored.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, item.OrderID)

	require.NoError(t, repo.DeleteItem(ctx, item))
	_, err = repo.FindItemByID(ctx, item.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	stored.Status = model.OrderStatusCanceled
	require.NoError(t, repo.UpdateStatus(ctx, stored))

	list, err := repo.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.OrderStatusCanceled, list[0].Status)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].Items, 1)

	_, err = repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
