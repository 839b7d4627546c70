package xlifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/omeyang/xmultitenant/pkg/observability/xlog"
	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
)

// StopObserver 接收转发的区间停止事件。
type StopObserver interface {
	OnStop(ctx context.Context, rangeIndex int) error
}

// Recorder 订阅真实生命周期的所有阶段区间，录制启动事件并转发停止事件。
type Recorder struct {
	real   xgrain.Lifecycle
	stages []int
	opts   options

	highestOnParticipate int
	lowestOnParticipate  int

	mu        sync.RWMutex
	events    []StartEvent
	observers map[uint64]StopObserver
	nextID    uint64
}

// NewRecorder 在 real 上为每个阶段区间订阅一个观察者。
// 必须在 real 启动前调用，通常在宿主组件的 Participate 中。
func NewRecorder(real xgrain.Lifecycle, opts ...Option) (*Recorder, error) {
	if real == nil {
		return nil, ErrNilLifecycle
	}
	stages := slices.Clone(real.Stages())
	if len(stages) < 2 {
		return nil, ErrTooFewStages
	}
	r := &Recorder{
		real:                 real,
		stages:               stages,
		opts:                 applyOptions(opts),
		highestOnParticipate: real.HighestCompletedStage(),
		lowestOnParticipate:  real.LowestStoppedStage(),
		observers:            make(map[uint64]StopObserver),
	}
	for i := range RangeCount(stages) {
		first, last := StageRange(stages, i)
		real.Subscribe(
			fmt.Sprintf("xlifecycle recorder %s for stages %d..%d", r.opts.name, first, last),
			first,
			xgrain.ObserverFuncs{
				Start: func(ctx context.Context) error { return r.recordStart(ctx, i, first, last) },
				Stop:  func(ctx context.Context) error { return r.forwardStop(ctx, i, first, last) },
			},
		)
	}
	return r, nil
}

func (r *Recorder) recordStart(ctx context.Context, i, first, last int) error {
	ev := StartEvent{
		RangeIndex:            i,
		HighestCompletedStage: r.real.HighestCompletedStage(),
		LowestStoppedStage:    r.real.LowestStoppedStage(),
	}
	r.opts.logger.Info(ctx, "recording lifecycle start",
		slog.Int("highest_completed_stage", ev.HighestCompletedStage),
		slog.Int("first_stage", first),
		slog.Int("last_stage", last),
	)
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) forwardStop(ctx context.Context, i, first, last int) error {
	r.mu.RLock()
	observers := make([]StopObserver, 0, len(r.observers))
	for _, o := range r.observers {
		observers = append(observers, o)
	}
	r.mu.RUnlock()

	r.opts.logger.Info(ctx, "forwarding lifecycle stop",
		slog.Int("lowest_stopped_stage", r.real.LowestStoppedStage()),
		xlog.Count(len(observers)),
		slog.Int("first_stage", first),
		slog.Int("last_stage", last),
	)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, o := range observers {
		wg.Go(func() {
			if err := o.OnStop(ctx, i); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Recording 返回当前录制内容的快照。
func (r *Recorder) Recording() Recording {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Recording{
		HighestCompletedOnParticipate: r.highestOnParticipate,
		LowestStoppedOnParticipate:    r.lowestOnParticipate,
		Stages:                        slices.Clone(r.stages),
		Events:                        slices.Clone(r.events),
	}
}

// SubscribeStop 注册停止事件观察者，返回的函数用于注销，可重复调用。
func (r *Recorder) SubscribeStop(o StopObserver) (unsubscribe func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.observers[id] = o
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.observers, id)
			r.mu.Unlock()
		})
	}
}

// StopObserverCount 返回已注册的停止事件观察者数量。
func (r *Recorder) StopObserverCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.observers)
}
