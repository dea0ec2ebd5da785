package network

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPair(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	fwd, rev, err := NewPair(a, b, time.Now())
	require.NoError(t, err)
	assert.Equal(t, a, fwd.OwnerID)
	assert.Equal(t, b, fwd.ContactID)
	assert.Equal(t, b, rev.OwnerID)
	assert.Equal(t, a, rev.ContactID)
	assert.NotEqual(t, fwd.ID, rev.ID)

	_, _, err = NewPair(a, a, time.Now())
	require.ErrorIs(t, err, ErrSelfConnection)
}
