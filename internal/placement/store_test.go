package placement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adplayer/internal/types"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(StoreTypeMemory)
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Load(ctx, "videoCarouselPosition")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, "videoCarouselPosition", types.Placement{X: -120, Y: 40}))
	p, ok, err := s.Load(ctx, "videoCarouselPosition")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.Placement{X: -120, Y: 40}, p)

	require.NoError(t, s.Clear(ctx, "videoCarouselPosition"))
	_, ok, _ = s.Load(ctx, "videoCarouselPosition")
	assert.False(t, ok)
}

func TestNewStoreValidation(t *testing.T) {
	_, err := NewStore(StoreTypeRedis)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewStore("etcd")
	assert.ErrorIs(t, err, ErrInvalidStoreType)
}
