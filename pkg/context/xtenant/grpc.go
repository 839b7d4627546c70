package xtenant

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
)

// Metadata key，grain key 使用二进制 metadata 以容纳任意字节。
const (
	MetaGrainType = "x-grain-type"
	MetaGrainKey  = "x-grain-key-bin"
)

// ExtractFromMetadata 从 metadata 还原调用方 grain 地址。
func ExtractFromMetadata(md metadata.MD) (xgrain.GrainID, bool) {
	if md == nil {
		return xgrain.GrainID{}, false
	}
	types := md.Get(MetaGrainType)
	if len(types) == 0 || types[0] == "" {
		return xgrain.GrainID{}, false
	}
	id := xgrain.GrainID{Type: xgrain.GrainType(types[0])}
	if keys := md.Get(MetaGrainKey); len(keys) > 0 {
		id.Key = []byte(keys[0])
	}
	return id, true
}

// ExtractFromIncomingContext 从 incoming metadata 还原调用方 grain 地址。
func ExtractFromIncomingContext(ctx context.Context) (xgrain.GrainID, bool) {
	if ctx == nil {
		return xgrain.GrainID{}, false
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return xgrain.GrainID{}, false
	}
	return ExtractFromMetadata(md)
}

// InjectToMetadata 把 grain 地址写入 md，使用 Set 语义覆盖已有值。
func InjectToMetadata(md metadata.MD, id xgrain.GrainID) {
	if md == nil || id.Type == "" {
		return
	}
	md.Set(MetaGrainType, string(id.Type))
	md.Set(MetaGrainKey, string(id.Key))
}

// InjectToOutgoingContext 把 ctx 中的调用方 grain 写入 outgoing metadata。
// ctx 中没有 grain 时删除已有的 grain metadata，避免把上游身份串到下游。
func InjectToOutgoingContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	md, ok := metadata.FromOutgoingContext(ctx)
	if ok {
		md = md.Copy()
	} else {
		md = metadata.MD{}
	}
	if id, has := Grain(ctx); has {
		InjectToMetadata(md, id)
	} else {
		if !ok {
			return ctx
		}
		md.Delete(MetaGrainType)
		md.Delete(MetaGrainKey)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

// GRPCInterceptorOption 配置服务端拦截器。
type GRPCInterceptorOption func(*grpcInterceptorConfig)

type grpcInterceptorConfig struct {
	requireGrain bool
}

// WithGRPCRequireGrain 要求请求携带调用方 grain，缺失时返回 InvalidArgument。
func WithGRPCRequireGrain() GRPCInterceptorOption {
	return func(cfg *grpcInterceptorConfig) {
		cfg.requireGrain = true
	}
}

func newInterceptorConfig(opts []GRPCInterceptorOption) *grpcInterceptorConfig {
	cfg := &grpcInterceptorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// GRPCUnaryServerInterceptor 把 incoming metadata 中的调用方 grain 写入 ctx。
func GRPCUnaryServerInterceptor(opts ...GRPCInterceptorOption) grpc.UnaryServerInterceptor {
	cfg := newInterceptorConfig(opts)
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, err := injectGrainToContext(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// GRPCStreamServerInterceptor 是 GRPCUnaryServerInterceptor 的流式版本。
func GRPCStreamServerInterceptor(opts ...GRPCInterceptorOption) grpc.StreamServerInterceptor {
	cfg := newInterceptorConfig(opts)
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := injectGrainToContext(ss.Context(), cfg)
		if err != nil {
			return err
		}
		return handler(srv, &WrappedServerStream{ServerStream: ss, Ctx: ctx})
	}
}

// WrappedServerStream 以 Ctx 覆盖 ServerStream 的 Context。
type WrappedServerStream struct {
	grpc.ServerStream
	Ctx context.Context
}

func (w *WrappedServerStream) Context() context.Context {
	return w.Ctx
}

// GRPCUnaryClientInterceptor 把 ctx 中的调用方 grain 传播到下游。
func GRPCUnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return invoker(InjectToOutgoingContext(ctx), method, req, reply, cc, opts...)
	}
}

// GRPCStreamClientInterceptor 是 GRPCUnaryClientInterceptor 的流式版本。
func GRPCStreamClientInterceptor() grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		return streamer(InjectToOutgoingContext(ctx), desc, cc, method, opts...)
	}
}

func injectGrainToContext(ctx context.Context, cfg *grpcInterceptorConfig) (context.Context, error) {
	id, ok := ExtractFromIncomingContext(ctx)
	if !ok {
		if cfg.requireGrain {
			return nil, status.Error(codes.InvalidArgument, ErrMissingGrain.Error())
		}
		return ctx, nil
	}
	ctx, err := WithGrain(ctx, id)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return ctx, nil
}
