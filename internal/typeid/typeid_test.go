package typeid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndValidate(t *testing.T) {
	id := Wall.New()
	assert.True(t, strings.HasPrefix(id, "wall_"))
	assert.NotEqual(t, id, Wall.New())

	require.NoError(t, Wall.Validate(id))
	assert.Error(t, Room.Validate(id))
	assert.Error(t, Wall.Validate("wall_nope"))

	p, err := Parse(Opening.New())
	require.NoError(t, err)
	assert.Equal(t, Opening, p)
}
