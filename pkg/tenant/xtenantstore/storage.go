package xtenantstore

import (
	"context"

	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
	"github.com/omeyang/xmultitenant/pkg/tenant/xprovider"
)

// GrainState 是一条 grain 状态记录。
type GrainState struct {
	// Data 是序列化后的状态。
	Data []byte

	// ETag 用于乐观并发控制，记录不存在时为空。
	ETag string

	// RecordExists 报告存储中是否有这条记录。
	RecordExists bool
}

// GrainStorage 读写 grain 状态。
//
// WriteState 与 ClearState 要求 state.ETag 与存储中的一致，否则返回 ErrETagMismatch；
// 成功后更新 state。
type GrainStorage interface {
	ReadState(ctx context.Context, grainType string, id xgrain.GrainID, state *GrainState) error
	WriteState(ctx context.Context, grainType string, id xgrain.GrainID, state *GrainState) error
	ClearState(ctx context.Context, grainType string, id xgrain.GrainID, state *GrainState) error
}

// Storage 是多租户存储：每次调用按 grain key 的租户委托给该租户的后端。
type Storage struct {
	mux *xprovider.Multiplexer[GrainStorage]
}

// New 创建名为 name 的多租户存储，factory 为每个租户创建后端。
func New(name string, factory xprovider.Factory[GrainStorage], opts ...xprovider.Option) (*Storage, error) {
	mux, err := xprovider.New(name, factory, opts...)
	if err != nil {
		return nil, err
	}
	return &Storage{mux: mux}, nil
}

// Name 返回存储名。
func (s *Storage) Name() string { return s.mux.Name() }

// Participate 实现 xgrain.LifecycleParticipant。
func (s *Storage) Participate(lc xgrain.Lifecycle) { s.mux.Participate(lc) }

// TenantCount 返回已创建的租户后端数量。
func (s *Storage) TenantCount() int { return s.mux.Len() }

// Close 停止创建新的租户后端。
func (s *Storage) Close() error { return s.mux.Close() }

func (s *Storage) ReadState(ctx context.Context, grainType string, id xgrain.GrainID, state *GrainState) error {
	p, err := s.mux.GetForKey(ctx, id.Key)
	if err != nil {
		return err
	}
	return p.ReadState(ctx, grainType, id, state)
}

func (s *Storage) WriteState(ctx context.Context, grainType string, id xgrain.GrainID, state *GrainState) error {
	p, err := s.mux.GetForKey(ctx, id.Key)
	if err != nil {
		return err
	}
	return p.WriteState(ctx, grainType, id, state)
}

func (s *Storage) ClearState(ctx context.Context, grainType string, id xgrain.GrainID, state *GrainState) error {
	p, err := s.mux.GetForKey(ctx, id.Key)
	if err != nil {
		return err
	}
	return p.ClearState(ctx, grainType, id, state)
}

var (
	_ GrainStorage                = (*Storage)(nil)
	_ xgrain.LifecycleParticipant = (*Storage)(nil)
)
