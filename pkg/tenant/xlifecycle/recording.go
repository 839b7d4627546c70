package xlifecycle

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
)

// StartEvent 是一次录制的区间启动，附带当时真实生命周期的阶段边界。
type StartEvent struct {
	RangeIndex            int
	HighestCompletedStage int
	LowestStoppedStage    int
}

// Recording 是启动过程的快照。
type Recording struct {
	HighestCompletedOnParticipate int
	LowestStoppedOnParticipate    int
	Stages                        []int
	Events                        []StartEvent
}

// Subscription 是 provider 在 Replayer 上的一次订阅。
type Subscription struct {
	Name     string
	Stage    int
	Observer xgrain.Observer
}

// StageRange 返回第 i 个区间的首尾阶段（闭区间）。
func StageRange(stages []int, i int) (first, last int) {
	return stages[i], stages[i+1] - 1
}

// RangeCount 返回 stages 构成的区间数量。
func RangeCount(stages []int) int {
	return max(len(stages)-1, 0)
}

// ReplayHooks 让调用方观察并干预重放过程，nil 字段被忽略。
type ReplayHooks struct {
	// Stopping 返回 true 时在下一个事件前结束重放。
	Stopping func() bool

	// BeforeEvent 在处理事件前调用。
	BeforeEvent func(ev StartEvent)

	// BeforeStage 在调用某阶段的订阅前调用。
	BeforeStage func(stage, subscriptions int)

	// AfterStage 在某阶段的订阅全部完成后调用。
	AfterStage func(stage int)
}

// ReplayStart 按录制顺序把启动事件重放给 subs，遇到第一个错误即返回。
func ReplayStart(ctx context.Context, rec Recording, subs []Subscription, hooks ReplayHooks) error {
	for _, ev := range rec.Events {
		if hooks.Stopping != nil && hooks.Stopping() {
			return nil
		}
		if ev.RangeIndex < 0 || ev.RangeIndex >= RangeCount(rec.Stages) {
			return fmt.Errorf("%w: %d", ErrInvalidRange, ev.RangeIndex)
		}
		if hooks.BeforeEvent != nil {
			hooks.BeforeEvent(ev)
		}
		first, last := StageRange(rec.Stages, ev.RangeIndex)
		for _, group := range groupInRange(subs, first, last) {
			if err := ctx.Err(); err != nil {
				return err
			}
			stage := group[0].Stage
			if hooks.BeforeStage != nil {
				hooks.BeforeStage(stage, len(group))
			}
			if err := startGroup(ctx, group); err != nil {
				return err
			}
			if hooks.AfterStage != nil {
				hooks.AfterStage(stage)
			}
		}
	}
	return nil
}

// ForwardStop 把第 rangeIndex 个区间的停止事件按阶段降序转发给 subs。
// 同一阶段并发执行；单个订阅出错不影响其余订阅，返回合并后的错误。
func ForwardStop(ctx context.Context, stages []int, rangeIndex int, subs []Subscription, beforeStage func(stage, subscriptions int)) error {
	if rangeIndex < 0 || rangeIndex >= RangeCount(stages) {
		return fmt.Errorf("%w: %d", ErrInvalidRange, rangeIndex)
	}
	first, last := StageRange(stages, rangeIndex)
	groups := groupInRange(subs, first, last)

	var errs []error
	for i := len(groups) - 1; i >= 0; i-- {
		group := groups[i]
		if beforeStage != nil {
			beforeStage(group[0].Stage, len(group))
		}
		errs = append(errs, stopGroup(ctx, group))
	}
	return errors.Join(errs...)
}

func startGroup(ctx context.Context, group []Subscription) error {
	eg, gctx := errgroup.WithContext(ctx)
	for _, s := range group {
		eg.Go(func() error {
			if err := s.Observer.OnStart(gctx); err != nil {
				return fmt.Errorf("xlifecycle: start %q at stage %d: %w", s.Name, s.Stage, err)
			}
			return nil
		})
	}
	return eg.Wait()
}

func stopGroup(ctx context.Context, group []Subscription) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, s := range group {
		wg.Go(func() {
			if err := s.Observer.OnStop(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("xlifecycle: stop %q at stage %d: %w", s.Name, s.Stage, err))
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}

// groupInRange 选出阶段在 [first, last] 内的订阅，按阶段升序分组。
func groupInRange(subs []Subscription, first, last int) [][]Subscription {
	var in []Subscription
	for _, s := range subs {
		if first <= s.Stage && s.Stage <= last {
			in = append(in, s)
		}
	}
	slices.SortStableFunc(in, func(a, b Subscription) int { return cmp.Compare(a.Stage, b.Stage) })

	var groups [][]Subscription
	for i := 0; i < len(in); {
		j := i + 1
		for j < len(in) && in[j].Stage == in[i].Stage {
			j++
		}
		groups = append(groups, in[i:j])
		i = j
	}
	return groups
}
