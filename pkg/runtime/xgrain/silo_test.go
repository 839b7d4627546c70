package xgrain

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type trace struct {
	mu     sync.Mutex
	events []string
}

func (tr *trace) add(s string) {
	tr.mu.Lock()
	tr.events = append(tr.events, s)
	tr.mu.Unlock()
}

func (tr *trace) observer(name string) Observer {
	return ObserverFuncs{
		Start: func(context.Context) error { tr.add("start " + name); return nil },
		Stop:  func(context.Context) error { tr.add("stop " + name); return nil },
	}
}

func TestSiloLifecycleOrdering(t *testing.T) {
	lc := NewSiloLifecycle()
	tr := &trace{}
	lc.Subscribe("active", StageActive, tr.observer("active"))
	lc.Subscribe("storage", StageRuntimeStorageServices, tr.observer("storage"))
	lc.Subscribe("init", StageRuntimeInitialize, tr.observer("init"))

	assert.Equal(t, NoStageCompleted, lc.HighestCompletedStage())
	require.NoError(t, lc.Start(context.Background()))
	assert.Equal(t, StageActive, lc.HighestCompletedStage())

	require.NoError(t, lc.Stop(context.Background()))
	assert.Equal(t, StageRuntimeInitialize, lc.LowestStoppedStage())

	assert.Equal(t, []string{
		"start init", "start storage", "start active",
		"stop active", "stop storage", "stop init",
	}, tr.events)
}

func TestSiloLifecycleStartError(t *testing.T) {
	lc := NewSiloLifecycle()
	boom := errors.New("boom")
	tr := &trace{}
	lc.Subscribe("bad", StageRuntimeServices, ObserverFuncs{Start: func(context.Context) error { return boom }})
	lc.Subscribe("later", StageActive, tr.observer("later"))

	err := lc.Start(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, tr.events)
	assert.ErrorIs(t, lc.Start(context.Background()), ErrAlreadyStarted)
}

func TestSiloLifecycleStopContinuesOnError(t *testing.T) {
	lc := NewSiloLifecycle()
	boom := errors.New("boom")
	tr := &trace{}
	lc.Subscribe("early", StageRuntimeServices, tr.observer("early"))
	lc.Subscribe("bad", StageActive, ObserverFuncs{Stop: func(context.Context) error { return boom }})
	require.NoError(t, lc.Start(context.Background()))

	err := lc.Stop(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, tr.events, "stop early")
}

func TestSiloLifecycleSubscribeAfterStartPanics(t *testing.T) {
	lc := NewSiloLifecycle()
	require.NoError(t, lc.Start(context.Background()))
	assert.Panics(t, func() {
		lc.Subscribe("late", StageActive, ObserverFuncs{})
	})
}

func TestStagesSortedAndCopied(t *testing.T) {
	lc := NewSiloLifecycle(30, 10, 20, 10)
	s := lc.Stages()
	assert.Equal(t, []int{10, 20, 30}, s)
	s[0] = 99
	assert.Equal(t, 10, lc.Stages()[0])
}

func TestGrainType(t *testing.T) {
	assert.True(t, GrainType("sys.client").IsClient())
	assert.True(t, GrainType("sys.svc.directory").IsSystemTarget())
	assert.False(t, GrainType("user").IsClient())
	assert.False(t, GrainType("user").IsSystemTarget())
}

func TestDispatchRunsFiltersInOrder(t *testing.T) {
	tr := &trace{}
	mk := func(name string) IncomingCallFilter {
		return IncomingCallFilterFunc(func(ctx context.Context, call IncomingCallContext) error {
			tr.add(name)
			return call.Invoke(ctx)
		})
	}
	call := &Call{Handler: func(context.Context) error { tr.add("target"); return nil }}

	require.NoError(t, Dispatch(context.Background(), call, mk("a"), mk("b")))
	assert.Equal(t, []string{"a", "b", "target"}, tr.events)
}

type dropStrings struct{}

func (dropStrings) ShouldDeliver(_ context.Context, _ StreamID, item any) bool {
	_, isString := item.(string)
	return !isString
}

func TestMemoryStreamProvider(t *testing.T) {
	p := NewMemoryStreamProvider("sms", dropStrings{})
	s := p.Stream(NewStreamID("ns", "k"))

	var got []any
	cancel, err := s.Subscribe(context.Background(), func(_ context.Context, item any) error {
		got = append(got, item)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, s.Publish(context.Background(), 1))
	require.NoError(t, s.Publish(context.Background(), "dropped"))
	require.NoError(t, p.Stream(NewStreamID("ns", "other")).Publish(context.Background(), 2))
	assert.Equal(t, []any{1}, got)

	cancel()
	cancel()
	require.NoError(t, s.Publish(context.Background(), 3))
	assert.Equal(t, []any{1}, got)

	_, err = s.Subscribe(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilHandler)
}
