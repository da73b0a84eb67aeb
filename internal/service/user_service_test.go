package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "orderhub/internal/errors"
	"orderhub/internal/model"
)

func TestUserService_GetUser(t *testing.T) {
	dbErr := errors.New("timeout")

	tests := []struct {
		name          string
		id            uint
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name: "found",
			id:   7,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(7)).Return(&model.User{ID: 7, Admin: true}, nil)
			},
		},
		{
			name: "not found",
			id:   8,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(8)).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrUserNotFound,
		},
		{
			name: "database failure is wrapped",
			id:   9,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(9)).Return(nil, dbErr)
			},
			expectedError: dbErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			user, err := NewUserService(mockRepo, nil).GetUser(context.Background(), tt.id)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.id, user.ID)
				assert.True(t, user.Admin)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}
