package xtenantstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
)

// PersistentState 是 grain 的类型化状态，以 JSON 存入 GrainStorage。
// 非并发安全，与 grain 的单线程执行模型一致。
type PersistentState[T any] struct {
	storage   GrainStorage
	grainType string
	id        xgrain.GrainID
	record    GrainState
	value     T
}

// NewPersistentState 创建状态持有者，初始值为 T 的零值，需要调用 Read 加载。
func NewPersistentState[T any](storage GrainStorage, grainType string, id xgrain.GrainID) *PersistentState[T] {
	return &PersistentState[T]{storage: storage, grainType: grainType, id: id}
}

// State 返回当前值。
func (s *PersistentState[T]) State() T { return s.value }

// Set 修改当前值，调用 Write 后持久化。
func (s *PersistentState[T]) Set(v T) { s.value = v }

// ETag 返回最近一次读写得到的 ETag。
func (s *PersistentState[T]) ETag() string { return s.record.ETag }

// RecordExists 报告存储中是否有记录。
func (s *PersistentState[T]) RecordExists() bool { return s.record.RecordExists }

// Read 从存储加载，记录不存在时值重置为零值。
func (s *PersistentState[T]) Read(ctx context.Context) error {
	var rec GrainState
	if err := s.storage.ReadState(ctx, s.grainType, s.id, &rec); err != nil {
		return err
	}
	var v T
	if rec.RecordExists && len(rec.Data) > 0 {
		if err := json.Unmarshal(rec.Data, &v); err != nil {
			return fmt.Errorf("%w: decode %s: %w", ErrCorruptRecord, s.grainType, err)
		}
	}
	s.record = rec
	s.value = v
	return nil
}

// Write 持久化当前值。
func (s *PersistentState[T]) Write(ctx context.Context) error {
	data, err := json.Marshal(s.value)
	if err != nil {
		return fmt.Errorf("xtenantstore: encode %s: %w", s.grainType, err)
	}
	rec := s.record
	rec.Data = data
	if err := s.storage.WriteState(ctx, s.grainType, s.id, &rec); err != nil {
		return err
	}
	s.record = rec
	return nil
}

// Clear 删除存储中的记录并把值重置为零值。
func (s *PersistentState[T]) Clear(ctx context.Context) error {
	rec := s.record
	if err := s.storage.ClearState(ctx, s.grainType, s.id, &rec); err != nil {
		return err
	}
	var zero T
	s.record = rec
	s.value = zero
	return nil
}
