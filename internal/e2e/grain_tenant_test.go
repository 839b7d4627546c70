//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/omeyang/xmultitenant/pkg/context/xtenant"
	"github.com/omeyang/xmultitenant/pkg/observability/xlog"
	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
	"github.com/omeyang/xmultitenant/pkg/tenant/xguard"
	"github.com/omeyang/xmultitenant/pkg/tenant/xtenantkey"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// 所有请求的目标 grain 都属于 acme 租户。
func acmeTarget(context.Context, string, any) (xgrain.GrainID, error) {
	return xgrain.NewGrainID("app.health", xtenantkey.Encode(xtenantkey.New("acme"), "svc")), nil
}

func startServer(t *testing.T, logs *syncBuffer) healthpb.HealthClient {
	t.Helper()
	logger, closeLog, err := xlog.New().SetOutput(logs).SetFormat("json").Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeLog() })

	guard := xguard.NewGuard(xguard.WithLogger(logger))
	filter := xguard.NewCallFilter(guard, nil)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		xtenant.GRPCUnaryServerInterceptor(),
		xguard.UnaryServerInterceptor(filter, acmeTarget),
	))
	healthpb.RegisterHealthServer(srv, health.NewServer())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(xtenant.GRPCUnaryClientInterceptor()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func callAs(t *testing.T, client healthpb.HealthClient, caller xgrain.GrainID) error {
	t.Helper()
	ctx, err := xtenant.WithGrain(context.Background(), caller)
	require.NoError(t, err)
	_, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	return err
}

func TestGRPCTenantSeparation_E2E(t *testing.T) {
	logs := &syncBuffer{}
	client := startServer(t, logs)

	sameTenant := xgrain.NewGrainID("app.order", xtenantkey.Encode(xtenantkey.New("acme"), "o1"))
	require.NoError(t, callAs(t, client, sameTenant))

	otherTenant := xgrain.NewGrainID("app.order", xtenantkey.Encode(xtenantkey.New("other"), "o1"))
	err := callAs(t, client, otherTenant)
	require.Error(t, err)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), `tenant "other" attempted to access tenant "acme"`)

	out := logs.String()
	assert.Contains(t, out, "cross-tenant access denied")
	assert.Contains(t, out, `"tenant_id":"other"`)
	assert.Contains(t, out, `"grain_type":"app.order"`)

	// 客户端不是租户作用域，直接放行
	clientGrain := xgrain.NewGrainID(xgrain.ClientTypePrefix, "c1")
	require.NoError(t, callAs(t, client, clientGrain))

	// 没有调用方 grain 的请求同样放行
	_, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
}
