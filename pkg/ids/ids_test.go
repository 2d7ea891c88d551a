package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsPrefixedAndSortable(t *testing.T) {
	a := New("purchase")
	b := New("purchase")

	assert.True(t, HasPrefix(a, "purchase"))
	assert.False(t, HasPrefix(a, "reward"))
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}
