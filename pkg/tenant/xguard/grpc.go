package xguard

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/omeyang/xmultitenant/pkg/context/xtenant"
	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
)

// TargetResolver 从 gRPC 请求解析目标 grain。流式调用时 req 为 nil。
type TargetResolver func(ctx context.Context, fullMethod string, req any) (xgrain.GrainID, error)

// UnaryServerInterceptor 在 gRPC 入口执行跨租户检查。
// 需要放在 xtenant.GRPCUnaryServerInterceptor 之后，或直接读取 incoming metadata。
func UnaryServerInterceptor(filter *CallFilter, resolve TargetResolver) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if err := checkGRPC(ctx, filter, resolve, info.FullMethod, req); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor 是 UnaryServerInterceptor 的流式版本。
func StreamServerInterceptor(filter *CallFilter, resolve TargetResolver) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if err := checkGRPC(ss.Context(), filter, resolve, info.FullMethod, nil); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}

func checkGRPC(ctx context.Context, filter *CallFilter, resolve TargetResolver, fullMethod string, req any) error {
	if resolve == nil {
		return status.Error(codes.Internal, ErrNilResolver.Error())
	}
	target, err := resolve(ctx, fullMethod, req)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	service, method := splitMethod(fullMethod)
	call := &xgrain.Call{Target: target, Interface: service, Method: method}
	if source, ok := xtenant.Grain(ctx); ok {
		call.Source, call.HasSource = source, true
	} else if source, ok := xtenant.ExtractFromIncomingContext(ctx); ok {
		call.Source, call.HasSource = source, true
	}
	if err := filter.Check(ctx, call); err != nil {
		if errors.Is(err, ErrUnauthorizedAccess) {
			return status.Error(codes.PermissionDenied, err.Error())
		}
		return status.Error(codes.Internal, err.Error())
	}
	return nil
}

// splitMethod 把 "/pkg.Service/Method" 拆成服务名与方法名。
func splitMethod(fullMethod string) (service, method string) {
	s := strings.TrimPrefix(fullMethod, "/")
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}
