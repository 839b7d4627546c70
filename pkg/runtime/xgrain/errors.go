package xgrain

import "errors"

var (
	// ErrAlreadyStarted 表示 SiloLifecycle.Start 被重复调用。
	ErrAlreadyStarted = errors.New("xgrain: lifecycle already started")

	// ErrNilHandler 表示订阅流时传入了 nil 处理函数。
	ErrNilHandler = errors.New("xgrain: nil stream handler")
)
