package xgrain

import (
	"context"
	"math"
)

// 运行时生命周期阶段。相邻两个阶段值构成一个阶段区间。
const (
	StageFirst                     = math.MinInt32
	StageRuntimeInitialize         = 2000
	StageRuntimeServices           = 4000
	StageRuntimeStorageServices    = 6000
	StageRuntimeGrainServices      = 8000
	StageAfterRuntimeGrainServices = 8100
	StageApplicationServices       = 10000
	StageBecomeActive              = 19999
	StageActive                    = 20000
	StageLast                      = math.MaxInt32
)

// DefaultStages 返回升序排列的默认阶段边界。
func DefaultStages() []int {
	return []int{
		StageFirst,
		StageRuntimeInitialize,
		StageRuntimeServices,
		StageRuntimeStorageServices,
		StageRuntimeGrainServices,
		StageAfterRuntimeGrainServices,
		StageApplicationServices,
		StageBecomeActive,
		StageActive,
		StageLast,
	}
}

// Observer 接收某个阶段的启动与停止通知。
type Observer interface {
	OnStart(ctx context.Context) error
	OnStop(ctx context.Context) error
}

// ObserverFuncs 以函数实现 Observer，nil 字段视为空操作。
type ObserverFuncs struct {
	Start func(ctx context.Context) error
	Stop  func(ctx context.Context) error
}

// OnStart 实现 Observer。
func (f ObserverFuncs) OnStart(ctx context.Context) error {
	if f.Start == nil {
		return nil
	}
	return f.Start(ctx)
}

// OnStop 实现 Observer。
func (f ObserverFuncs) OnStop(ctx context.Context) error {
	if f.Stop == nil {
		return nil
	}
	return f.Stop(ctx)
}

// Lifecycle 是运行时生命周期。
type Lifecycle interface {
	// HighestCompletedStage 返回已完成启动的最高阶段。
	HighestCompletedStage() int

	// LowestStoppedStage 返回已完成停止的最低阶段。
	LowestStoppedStage() int

	// Subscribe 在 stage 上注册观察者。
	Subscribe(name string, stage int, observer Observer)

	// Stages 返回升序排列的阶段区间边界。
	Stages() []int
}

// LifecycleParticipant 由需要加入生命周期的组件实现，在 Participate 中完成订阅。
type LifecycleParticipant interface {
	Participate(lc Lifecycle)
}
