package xtenantstore

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
	"github.com/omeyang/xmultitenant/pkg/tenant/xprovider"
)

type memoryKey struct {
	grainType string
	key       string
}

type memoryRecord struct {
	data []byte
	etag string
}

// Memory 是进程内存后端。
type Memory struct {
	name string

	mu      sync.Mutex
	records map[memoryKey]memoryRecord
}

// NewMemory 创建内存后端。
func NewMemory(name string) *Memory {
	return &Memory{name: name, records: make(map[memoryKey]memoryRecord)}
}

// NewMemoryFactory 返回为每个租户创建独立 Memory 的 Factory。
func NewMemoryFactory() xprovider.Factory[GrainStorage] {
	return func(_ context.Context, cfg xprovider.TenantConfig) (GrainStorage, error) {
		return NewMemory(cfg.TenantProviderName), nil
	}
}

// Name 返回后端名，通常是租户 provider 名。
func (m *Memory) Name() string { return m.name }

// Len 返回记录数量。
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *Memory) ReadState(_ context.Context, grainType string, id xgrain.GrainID, state *GrainState) error {
	if state == nil {
		return ErrNilState
	}
	m.mu.Lock()
	rec, ok := m.records[memoryKey{grainType, string(id.Key)}]
	m.mu.Unlock()
	*state = GrainState{Data: slices.Clone(rec.data), ETag: rec.etag, RecordExists: ok}
	return nil
}

func (m *Memory) WriteState(_ context.Context, grainType string, id xgrain.GrainID, state *GrainState) error {
	if state == nil {
		return ErrNilState
	}
	k := memoryKey{grainType, string(id.Key)}
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur := m.records[k].etag; cur != state.ETag {
		return etagMismatch(grainType, k.key, cur, state.ETag)
	}
	etag := uuid.NewString()
	m.records[k] = memoryRecord{data: slices.Clone(state.Data), etag: etag}
	state.ETag = etag
	state.RecordExists = true
	return nil
}

func (m *Memory) ClearState(_ context.Context, grainType string, id xgrain.GrainID, state *GrainState) error {
	if state == nil {
		return ErrNilState
	}
	k := memoryKey{grainType, string(id.Key)}
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur := m.records[k].etag; cur != state.ETag {
		return etagMismatch(grainType, k.key, cur, state.ETag)
	}
	delete(m.records, k)
	*state = GrainState{}
	return nil
}

var _ GrainStorage = (*Memory)(nil)
