package xlifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/omeyang/xmultitenant/pkg/observability/xlog"
	"github.com/omeyang/xmultitenant/pkg/observability/xmetrics"
	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
)

// Replayer 是交给单个租户 provider 的生命周期。
//
// provider 在 Participate 中向它订阅；之后 Replay 把录制的启动过程重放给这些
// 订阅，Recorder 转发的停止事件也经它送达。
type Replayer struct {
	recorder    *Recorder
	opts        options
	unsubscribe func()

	mu       sync.Mutex
	subs     []Subscription
	highest  int
	lowest   int
	stopping bool
}

// NewReplayer 创建 Replayer 并注册到 recorder 的停止事件。
func NewReplayer(recorder *Recorder, opts ...Option) (*Replayer, error) {
	if recorder == nil {
		return nil, ErrNilRecorder
	}
	rec := recorder.Recording()
	p := &Replayer{
		recorder: recorder,
		opts:     applyOptions(opts),
		highest:  rec.HighestCompletedOnParticipate,
		lowest:   rec.LowestStoppedOnParticipate,
	}
	p.unsubscribe = recorder.SubscribeStop(p)
	return p, nil
}

// HighestCompletedStage 实现 xgrain.Lifecycle。
func (p *Replayer) HighestCompletedStage() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.highest
}

// LowestStoppedStage 实现 xgrain.Lifecycle。
func (p *Replayer) LowestStoppedStage() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lowest
}

// Stages 实现 xgrain.Lifecycle。
func (p *Replayer) Stages() []int {
	return slices.Clone(p.recorder.stages)
}

// Subscribe 实现 xgrain.Lifecycle。
func (p *Replayer) Subscribe(name string, stage int, observer xgrain.Observer) {
	if observer == nil {
		panic("xlifecycle: nil lifecycle observer")
	}
	p.mu.Lock()
	p.subs = append(p.subs, Subscription{Name: name, Stage: stage, Observer: observer})
	p.mu.Unlock()
}

// SubscriptionCount 返回已登记的订阅数量。
func (p *Replayer) SubscriptionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Replay 把录制的启动过程重放给已登记的订阅。
func (p *Replayer) Replay(ctx context.Context) (err error) {
	ctx, span := xmetrics.Start(ctx, p.opts.observer, xmetrics.SpanOptions{
		Component: "xlifecycle",
		Operation: "lifecycle.replay",
		Attrs:     []xmetrics.Attr{xmetrics.Provider(p.opts.name)},
	})
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	p.mu.Lock()
	subs := slices.Clone(p.subs)
	p.mu.Unlock()

	err = ReplayStart(ctx, p.recorder.Recording(), subs, ReplayHooks{
		Stopping: func() bool {
			p.mu.Lock()
			defer p.mu.Unlock()
			return p.stopping
		},
		BeforeEvent: func(ev StartEvent) {
			p.mu.Lock()
			p.highest = ev.HighestCompletedStage
			p.lowest = ev.LowestStoppedStage
			p.mu.Unlock()
		},
		BeforeStage: func(stage, n int) {
			p.opts.logger.Info(ctx, "replaying lifecycle start for tenant",
				xlog.Provider(p.opts.name), xlog.Count(n), xlog.Stage(stage))
		},
		AfterStage: func(stage int) {
			p.mu.Lock()
			p.highest = stage
			p.mu.Unlock()
		},
	})
	if err != nil {
		return fmt.Errorf("xlifecycle: replay: %w", err)
	}
	return nil
}

// OnStop 实现 StopObserver：标记停止，并把区间停止事件转发给订阅。
func (p *Replayer) OnStop(ctx context.Context, rangeIndex int) error {
	p.mu.Lock()
	p.stopping = true
	subs := slices.Clone(p.subs)
	p.mu.Unlock()

	return ForwardStop(ctx, p.recorder.stages, rangeIndex, subs, func(stage, n int) {
		p.opts.logger.Info(ctx, "forwarding lifecycle stop for tenant",
			xlog.Provider(p.opts.name), xlog.Count(n), xlog.Stage(stage), slog.Int("range", rangeIndex))
	})
}

// Close 从 Recorder 注销，用于放弃构造中的 provider。可重复调用。
func (p *Replayer) Close() {
	p.unsubscribe()
}

var (
	_ xgrain.Lifecycle = (*Replayer)(nil)
	_ StopObserver     = (*Replayer)(nil)
)
