package xtenantstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
	"github.com/omeyang/xmultitenant/pkg/tenant/xprovider"
	"github.com/omeyang/xmultitenant/pkg/tenant/xtenantkey"
	"github.com/omeyang/xmultitenant/pkg/tenant/xtenantstore"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{
		Addr:         mr.Addr(),
		DialTimeout:  100 * time.Millisecond,
		ReadTimeout:  100 * time.Millisecond,
		WriteTimeout: 100 * time.Millisecond,
		PoolSize:     2,
		MaxRetries:   1,
	})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return client, mr
}

func TestRedisStorageWithLifecycle(t *testing.T) {
	client, mr := newTestRedis(t)
	s, err := xtenantstore.New("grains", xtenantstore.NewRedisFactory(client))
	require.NoError(t, err)
	defer s.Close()

	lc := xgrain.NewSiloLifecycle()
	s.Participate(lc)
	require.NoError(t, lc.Start(context.Background()))
	defer func() { require.NoError(t, lc.Stop(context.Background())) }()

	ctx := context.Background()
	id := grain(xtenantkey.New("acme"), "c1")
	st := &xtenantstore.GrainState{Data: []byte(`{"n":1}`)}
	require.NoError(t, s.WriteState(ctx, "counter", id, st))

	key := "acme_grains/counter/" + string(id.Key)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, `{"n":1}`, mr.HGet(key, "data"))
	assert.Equal(t, st.ETag, mr.HGet(key, "etag"))

	nullID := grain(xtenantkey.Null(), "c1")
	require.NoError(t, s.WriteState(ctx, "counter", nullID, &xtenantstore.GrainState{Data: []byte("0")}))
	assert.True(t, mr.Exists("Null_grains/counter/c1"))

	var back xtenantstore.GrainState
	require.NoError(t, s.ReadState(ctx, "counter", id, &back))
	assert.Equal(t, *st, back)
}

func TestRedisETag(t *testing.T) {
	client, mr := newTestRedis(t)
	r, err := xtenantstore.NewRedis(client, "acme_grains")
	require.NoError(t, err)
	ctx := context.Background()
	id := grain(xtenantkey.New("acme"), "c1")

	var missing xtenantstore.GrainState
	require.NoError(t, r.ReadState(ctx, "counter", id, &missing))
	assert.Equal(t, xtenantstore.GrainState{}, missing)

	st := &xtenantstore.GrainState{Data: []byte("a")}
	require.NoError(t, r.WriteState(ctx, "counter", id, st))

	err = r.WriteState(ctx, "counter", id, &xtenantstore.GrainState{Data: []byte("b")})
	assert.ErrorIs(t, err, xtenantstore.ErrETagMismatch)
	assert.Contains(t, err.Error(), st.ETag)

	assert.ErrorIs(t, r.ClearState(ctx, "counter", id, &xtenantstore.GrainState{ETag: "stale"}), xtenantstore.ErrETagMismatch)
	require.NoError(t, r.ClearState(ctx, "counter", id, st))
	assert.False(t, mr.Exists(r.Key("counter", id)))
	assert.Equal(t, xtenantstore.GrainState{}, *st)

	_, err = xtenantstore.NewRedis(nil, "x")
	assert.ErrorIs(t, err, xtenantstore.ErrNilClient)
}

func TestRedisStartFailsWhenUnavailable(t *testing.T) {
	client, mr := newTestRedis(t)
	s, err := xtenantstore.New("grains",
		xtenantstore.NewRedisFactory(client, xtenantstore.WithPingAttempts(2), xtenantstore.WithPingDelay(10*time.Millisecond)),
		xprovider.WithInitTimeout(xprovider.MinInitTimeout),
	)
	require.NoError(t, err)
	defer s.Close()

	lc := xgrain.NewSiloLifecycle()
	s.Participate(lc)
	require.NoError(t, lc.Start(context.Background()))

	mr.SetError("LOADING redis is loading the dataset in memory")
	id := grain(xtenantkey.New("acme"), "c1")
	err = s.ReadState(context.Background(), "counter", id, &xtenantstore.GrainState{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready")
	assert.Zero(t, s.TenantCount())
}

func TestRedisBreakerOpens(t *testing.T) {
	client, mr := newTestRedis(t)
	r, err := xtenantstore.NewRedis(client, "acme_grains", xtenantstore.WithBreaker(gobreaker.Settings{
		Timeout: time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 2
		},
	}))
	require.NoError(t, err)
	ctx := context.Background()
	id := grain(xtenantkey.New("acme"), "c1")

	require.NoError(t, r.WriteState(ctx, "counter", id, &xtenantstore.GrainState{Data: []byte("a")}))
	// ETag 冲突不计为后端失败
	for range 3 {
		err := r.WriteState(ctx, "counter", id, &xtenantstore.GrainState{ETag: "stale"})
		require.ErrorIs(t, err, xtenantstore.ErrETagMismatch)
	}
	assert.Equal(t, gobreaker.StateClosed, r.BreakerState())

	mr.SetError("ERR injected")
	for range 2 {
		err := r.ReadState(ctx, "counter", id, &xtenantstore.GrainState{})
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}
	assert.Equal(t, gobreaker.StateOpen, r.BreakerState())

	mr.SetError("")
	err = r.ReadState(ctx, "counter", id, &xtenantstore.GrainState{})
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, err.Error(), "unavailable")
}

func TestRedisWithoutBreaker(t *testing.T) {
	client, _ := newTestRedis(t)
	r, err := xtenantstore.NewRedis(client, "p")
	require.NoError(t, err)
	assert.Equal(t, gobreaker.StateClosed, r.BreakerState())
}
