package xtenant

import "errors"

var (
	// ErrNilContext 表示传入了 nil context。
	ErrNilContext = errors.New("xtenant: nil context")

	// ErrMissingGrain 表示 context 中没有调用方 grain。
	ErrMissingGrain = errors.New("xtenant: missing grain identity")

	// ErrEmptyGrainType 表示 grain 地址缺少类型。
	ErrEmptyGrainType = errors.New("xtenant: empty grain type")
)
