package xgrain

import (
	"context"
	"errors"
	"sync"
)

// StreamHandler 处理一条投递到订阅者的流事件。
type StreamHandler func(ctx context.Context, item any) error

// StreamFilter 在投递前检查每条事件，返回 false 即丢弃。
type StreamFilter interface {
	ShouldDeliver(ctx context.Context, id StreamID, item any) bool
}

// Stream 是运行时的流句柄。
type Stream interface {
	ID() StreamID
	Publish(ctx context.Context, item any) error
	Subscribe(ctx context.Context, handler StreamHandler) (func(), error)
}

// StreamProvider 是运行时的流 provider。
type StreamProvider interface {
	Name() string
	Stream(id StreamID) Stream
}

// GrainRef 是 grain 的调用引用。
type GrainRef interface {
	ID() GrainID
}

// GrainFactory 是运行时的 grain 寻址入口。
type GrainFactory interface {
	GetGrain(id GrainID) GrainRef
}

type grainRef struct{ id GrainID }

func (r grainRef) ID() GrainID { return r.id }

// RefFactory 是只生成地址引用的 GrainFactory。
type RefFactory struct{}

// GetGrain 实现 GrainFactory。
func (RefFactory) GetGrain(id GrainID) GrainRef { return grainRef{id: id} }

// MemoryStreamProvider 是进程内同步投递的 StreamProvider。
type MemoryStreamProvider struct {
	name    string
	filters []StreamFilter

	mu       sync.RWMutex
	handlers map[string]map[uint64]StreamHandler
	nextID   uint64
}

// NewMemoryStreamProvider 创建 provider，filters 在每次投递前依次执行。
func NewMemoryStreamProvider(name string, filters ...StreamFilter) *MemoryStreamProvider {
	return &MemoryStreamProvider{
		name:     name,
		filters:  filters,
		handlers: make(map[string]map[uint64]StreamHandler),
	}
}

// Name 实现 StreamProvider。
func (p *MemoryStreamProvider) Name() string { return p.name }

// Stream 实现 StreamProvider。
func (p *MemoryStreamProvider) Stream(id StreamID) Stream {
	return &memoryStream{p: p, id: id}
}

func streamKey(id StreamID) string {
	return id.Namespace + "\x00" + string(id.Key)
}

type memoryStream struct {
	p  *MemoryStreamProvider
	id StreamID
}

func (s *memoryStream) ID() StreamID { return s.id }

func (s *memoryStream) Publish(ctx context.Context, item any) error {
	s.p.mu.RLock()
	hs := make([]StreamHandler, 0, len(s.p.handlers[streamKey(s.id)]))
	for _, h := range s.p.handlers[streamKey(s.id)] {
		hs = append(hs, h)
	}
	s.p.mu.RUnlock()

	var errs []error
	for _, h := range hs {
		if !s.p.deliverable(ctx, s.id, item) {
			continue
		}
		if err := h(ctx, item); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *memoryStream) Subscribe(_ context.Context, handler StreamHandler) (func(), error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	key := streamKey(s.id)
	s.p.mu.Lock()
	s.p.nextID++
	id := s.p.nextID
	if s.p.handlers[key] == nil {
		s.p.handlers[key] = make(map[uint64]StreamHandler)
	}
	s.p.handlers[key][id] = handler
	s.p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.p.mu.Lock()
			delete(s.p.handlers[key], id)
			if len(s.p.handlers[key]) == 0 {
				delete(s.p.handlers, key)
			}
			s.p.mu.Unlock()
		})
	}, nil
}

func (p *MemoryStreamProvider) deliverable(ctx context.Context, id StreamID, item any) bool {
	for _, f := range p.filters {
		if !f.ShouldDeliver(ctx, id, item) {
			return false
		}
	}
	return true
}

var (
	_ StreamProvider = (*MemoryStreamProvider)(nil)
	_ GrainFactory   = RefFactory{}
)
