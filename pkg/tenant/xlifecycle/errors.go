package xlifecycle

import "errors"

var (
	// ErrInvalidRange 表示事件引用了不存在的阶段区间。
	ErrInvalidRange = errors.New("xlifecycle: invalid stage range index")

	// ErrNilLifecycle 表示 NewRecorder 传入了 nil 生命周期。
	ErrNilLifecycle = errors.New("xlifecycle: nil lifecycle")

	// ErrNilRecorder 表示 NewReplayer 传入了 nil Recorder。
	ErrNilRecorder = errors.New("xlifecycle: nil recorder")

	// ErrTooFewStages 表示生命周期的阶段边界不足以构成区间。
	ErrTooFewStages = errors.New("xlifecycle: lifecycle needs at least two stage boundaries")
)
