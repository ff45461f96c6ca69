package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLidFirstSightingSuppressed(t *testing.T) {
	var s lidState
	emit := s.observe(true)
	assert.False(t, emit)
	assert.True(t, s.present)
	assert.True(t, s.closed)
}

func TestLidSubsequentChangeEmits(t *testing.T) {
	var s lidState
	s.observe(true)
	emit := s.observe(false)
	assert.True(t, emit)
	assert.False(t, s.closed)
}

func TestLidRepeatedSameValueDoesNotEmit(t *testing.T) {
	var s lidState
	s.observe(false)
	emit := s.observe(false)
	assert.False(t, emit)
}
