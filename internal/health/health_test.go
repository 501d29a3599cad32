package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSSCheck(t *testing.T) {
	rss, err := RSS()
	require.NoError(t, err)
	require.NotZero(t, rss)

	assert.NoError(t, RSSCheck(rss*4)())
	assert.Error(t, RSSCheck(1)())
}
