package xtenantstore

import (
	"errors"
	"fmt"
)

var (
	// ErrETagMismatch 表示写入或清除时 ETag 与存储中的不一致。
	ErrETagMismatch = errors.New("xtenantstore: etag mismatch")

	// ErrNilState 表示 GrainState 为 nil。
	ErrNilState = errors.New("xtenantstore: nil grain state")

	// ErrNilClient 表示 Redis 客户端为 nil。
	ErrNilClient = errors.New("xtenantstore: nil redis client")

	// ErrCorruptRecord 表示存储中的记录无法识别。
	ErrCorruptRecord = errors.New("xtenantstore: corrupt record")
)

func etagMismatch(grainType, key, stored, given string) error {
	return fmt.Errorf("%w: %s %q stored %q, given %q", ErrETagMismatch, grainType, key, stored, given)
}
