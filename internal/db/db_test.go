package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderhub/internal/model"
)

func TestBuildDialector(t *testing.T) {
	tests := []struct {
		url     string
		name    string
		memory  bool
		wantErr bool
	}{
		{"sqlite://:memory:", "sqlite", true, false},
		{"sqlite://orderhub.db", "sqlite", false, false},
		{"postgres://app:pw@localhost:5432/orders", "postgres", false, false},
		{"postgresql://app:pw@localhost:5432/orders", "postgres", false, false},
		{"mysql://user:pw@tcp(localhost:3306)/app?parseTime=True", "mysql", false, false},
		{"sqlite://", "", false, true},
		{"orderhub.db", "", false, true},
		{"oracle://x", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			d, memory, err := buildDialector(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, d.Name())
			assert.Equal(t, tt.memory, memory)
		})
	}
}

func TestOpenAndMigrate(t *testing.T) {
	gdb, err := Open("sqlite://:memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))

	m := gdb.Migrator()
	assert.True(t, m.HasTable(&model.User{}))
	assert.True(t, m.HasTable(&model.Order{}))
	assert.True(t, m.HasTable(&model.OrderItem{}))

	require.NoError(t, Reset(gdb))
	assert.False(t, m.HasTable(&model.Order{}))
}
