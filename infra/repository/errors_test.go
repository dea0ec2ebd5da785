package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/amirasaad/marketledger/pkg/domain"
	"github.com/amirasaad/marketledger/pkg/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMapGormErrorToDomain(t *testing.T) {
	t.Parallel()

	other := errors.New("some other error")
	tests := []struct {
		name     string
		input    error
		expected error
	}{
		{name: "nil error returns nil", input: nil, expected: nil},
		{name: "duplicate key", input: gorm.ErrDuplicatedKey, expected: domain.ErrAlreadyExists},
		{name: "record not found", input: gorm.ErrRecordNotFound, expected: domain.ErrNotFound},
		{name: "non-GORM error returns original", input: other, expected: other},
		{
			name:     "joined duplicate key",
			input:    errors.Join(errors.New("outer error"), gorm.ErrDuplicatedKey),
			expected: domain.ErrAlreadyExists,
		},
		{
			name:     "wrapped record not found",
			input:    fmt.Errorf("query: %w", gorm.ErrRecordNotFound),
			expected: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := MapGormErrorToDomain(tt.input)
			if tt.expected == nil {
				require.NoError(t, result)
				return
			}
			assert.ErrorIs(t, result, tt.expected)
		})
	}
}

func TestNotFoundAs(t *testing.T) {
	err := notFoundAs(gorm.ErrRecordNotFound, user.ErrUserNotFound)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = notFoundAs(gorm.ErrDuplicatedKey, user.ErrUserNotFound)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.NotErrorIs(t, err, user.ErrUserNotFound)

	assert.NoError(t, WrapError(func() error { return nil }))
}
