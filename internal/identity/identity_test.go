package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAuthenticated(t *testing.T) {
	id := uuid.New()
	u := Authenticated(id)

	assert.False(t, u.IsAnonymous())
	got, ok := u.UUID()
	assert.True(t, ok)
	assert.Equal(t, id, got)
	assert.Equal(t, id.String(), u.String())
}

func TestAnonymous(t *testing.T) {
	u := Anonymous()

	assert.True(t, u.IsAnonymous())
	_, ok := u.UUID()
	assert.False(t, ok)
	assert.Equal(t, "anonymous", u.String())
}

func TestZeroValueIsAnonymous(t *testing.T) {
	var u UserID
	assert.True(t, u.IsAnonymous())
}
