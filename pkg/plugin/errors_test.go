package plugin

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	cause := errors.New("bridge offline")

	err := NewError("igloohome", "lock_OE1X123", "unlock", cause)
	assert.Equal(t, "igloohome: unlock lock_OE1X123 failed: bridge offline", err.Error())
	assert.ErrorIs(t, err, cause)

	noEntity := NewError("igloohome", "", "refresh", cause)
	assert.Equal(t, "igloohome: refresh failed: bridge offline", noEntity.Error())
}

func TestIsHostError(t *testing.T) {
	hostErr := NewError("igloohome", "lock_1", "lock", errors.New("boom"))

	assert.True(t, IsHostError(hostErr))
	assert.True(t, IsHostError(fmt.Errorf("command failed: %w", hostErr)))
	assert.False(t, IsHostError(errors.New("plain")))
	assert.False(t, IsHostError(nil))
}
