package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLerp(t *testing.T) {
	assert.Equal(t, 4.0, Lerp(4, 12, 0))
	assert.Equal(t, 12.0, Lerp(4, 12, 1))
	assert.Equal(t, 6.0, Lerp(4, 12, 0.25))
	assert.Equal(t, 14.0, Lerp(4, 12, 1.25))
	assert.Equal(t, 2.0, Lerp(4, 12, -0.25))
}
