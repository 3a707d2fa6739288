package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	rdb, err := Open(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, rdb)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb, err = Open(ctx, "redis://"+mr.Addr())
	require.NoError(t, err)
	require.NotNil(t, rdb)
	defer rdb.Close()
	assert.NoError(t, rdb.Set(ctx, "k", "v", 0).Err())

	_, err = Open(ctx, "not a url")
	assert.Error(t, err)
}
