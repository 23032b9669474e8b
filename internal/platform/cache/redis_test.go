package cache

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := New(context.Background(), mr.Addr(), "")
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	assert.NoError(t, Ping(client)(context.Background()))

	mr.Close()
	assert.ErrorContains(t, Ping(client)(context.Background()), "platform/cache: ping")
}
