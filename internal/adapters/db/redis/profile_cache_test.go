package redis

import (
	"context"
	"testing"
	"time"

	"github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/model"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestProfileCache_PutGetInvalidate(t *testing.T) {
	client, mr := newClient(t)
	cache := NewProfileCache(client, 2*time.Minute)
	ctx := context.Background()

	viewerA, viewerB := primitive.NewObjectID(), primitive.NewObjectID()

	_, ok, err := cache.Get(ctx, "dave", viewerA)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Put(ctx, "dave", viewerA, model.ChannelProfile{Username: "dave", IsSubscribed: true}))
	require.NoError(t, cache.Put(ctx, "dave", viewerB, model.ChannelProfile{Username: "dave"}))
	require.Equal(t, 2*time.Minute, mr.TTL(profilePrefix+"dave"))

	p, ok, err := cache.Get(ctx, "dave", viewerA)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, p.IsSubscribed)

	p, ok, err = cache.Get(ctx, "dave", viewerB)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, p.IsSubscribed)

	require.NoError(t, cache.Invalidate(ctx, "dave"))
	_, ok, err = cache.Get(ctx, "dave", viewerA)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestProfileCache_Expires(t *testing.T) {
	client, mr := newClient(t)
	cache := NewProfileCache(client, time.Second)
	ctx := context.Background()
	viewer := primitive.NewObjectID()

	require.NoError(t, cache.Put(ctx, "erin", viewer, model.ChannelProfile{Username: "erin"}))
	mr.FastForward(2 * time.Second)

	_, ok, err := cache.Get(ctx, "erin", viewer)
	require.NoError(t, err)
	require.False(t, ok)
}
