package xgrain

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// 尚未有阶段完成启动或停止时的取值。
const (
	NoStageCompleted = math.MinInt
	NoStageStopped   = math.MaxInt
)

type subscription struct {
	name     string
	stage    int
	observer Observer
}

// SiloLifecycle 是进程内的 [Lifecycle] 实现。
//
// Start 按阶段升序调用 OnStart，同一阶段的观察者并发执行，全部完成后才进入
// 下一阶段；Stop 按阶段降序调用 OnStop，单个观察者出错不影响其余观察者。
type SiloLifecycle struct {
	stages []int

	mu      sync.Mutex
	subs    []subscription
	started bool

	highest atomic.Int64
	lowest  atomic.Int64
}

// NewSiloLifecycle 创建生命周期，stages 为空时使用 [DefaultStages]。
func NewSiloLifecycle(stages ...int) *SiloLifecycle {
	if len(stages) == 0 {
		stages = DefaultStages()
	}
	s := slices.Clone(stages)
	slices.Sort(s)
	lc := &SiloLifecycle{stages: slices.Compact(s)}
	lc.highest.Store(NoStageCompleted)
	lc.lowest.Store(NoStageStopped)
	return lc
}

// HighestCompletedStage 实现 Lifecycle。
func (lc *SiloLifecycle) HighestCompletedStage() int {
	return int(lc.highest.Load())
}

// LowestStoppedStage 实现 Lifecycle。
func (lc *SiloLifecycle) LowestStoppedStage() int {
	return int(lc.lowest.Load())
}

// Stages 实现 Lifecycle。
func (lc *SiloLifecycle) Stages() []int {
	return slices.Clone(lc.stages)
}

// Subscribe 实现 Lifecycle。Start 之后订阅属于编程错误，会 panic。
func (lc *SiloLifecycle) Subscribe(name string, stage int, observer Observer) {
	if observer == nil {
		panic("xgrain: nil lifecycle observer")
	}
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if lc.started {
		panic(fmt.Sprintf("xgrain: subscribe %q to stage %d after lifecycle started", name, stage))
	}
	lc.subs = append(lc.subs, subscription{name: name, stage: stage, observer: observer})
}

// Start 依次启动所有阶段，遇到第一个错误即返回。
func (lc *SiloLifecycle) Start(ctx context.Context) error {
	lc.mu.Lock()
	if lc.started {
		lc.mu.Unlock()
		return ErrAlreadyStarted
	}
	lc.started = true
	groups := groupByStage(lc.subs)
	lc.mu.Unlock()

	for _, g := range groups {
		eg, gctx := errgroup.WithContext(ctx)
		for _, s := range g {
			eg.Go(func() error {
				if err := s.observer.OnStart(gctx); err != nil {
					return fmt.Errorf("xgrain: start %q at stage %d: %w", s.name, s.stage, err)
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
		lc.highest.Store(int64(g[0].stage))
	}
	return nil
}

// Stop 按阶段降序停止所有观察者，返回合并后的错误。
func (lc *SiloLifecycle) Stop(ctx context.Context) error {
	lc.mu.Lock()
	groups := groupByStage(lc.subs)
	lc.mu.Unlock()

	var errs []error
	for i := len(groups) - 1; i >= 0; i-- {
		g := groups[i]
		var (
			wg  sync.WaitGroup
			emu sync.Mutex
		)
		for _, s := range g {
			wg.Go(func() {
				if err := s.observer.OnStop(ctx); err != nil {
					emu.Lock()
					errs = append(errs, fmt.Errorf("xgrain: stop %q at stage %d: %w", s.name, s.stage, err))
					emu.Unlock()
				}
			})
		}
		wg.Wait()
		lc.lowest.Store(int64(g[0].stage))
	}
	return errors.Join(errs...)
}

// groupByStage 按阶段升序分组，组内保持订阅顺序。
func groupByStage(subs []subscription) [][]subscription {
	sorted := slices.Clone(subs)
	slices.SortStableFunc(sorted, func(a, b subscription) int { return cmp.Compare(a.stage, b.stage) })

	var groups [][]subscription
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && sorted[j].stage == sorted[i].stage {
			j++
		}
		groups = append(groups, sorted[i:j])
		i = j
	}
	return groups
}

var _ Lifecycle = (*SiloLifecycle)(nil)
