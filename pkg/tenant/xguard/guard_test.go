package xguard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"github.com/omeyang/xmultitenant/pkg/runtime/xgrain"
	"github.com/omeyang/xmultitenant/pkg/tenant/xguard"
	"github.com/omeyang/xmultitenant/pkg/tenant/xtenantkey"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	tenantA = xtenantkey.New("TenantA")
	tenantB = xtenantkey.New("TenantB")
)

func grainOf(tenant xtenantkey.ID, key string) xgrain.GrainID {
	return xgrain.NewGrainID("app.counter", xtenantkey.Encode(tenant, key))
}

func TestCrossTenantDeniedByDefault(t *testing.T) {
	g := xguard.NewGuard()
	err := g.CheckAccess(context.Background(), tenantA, tenantB)
	require.Error(t, err)
	assert.ErrorIs(t, err, xguard.ErrUnauthorizedAccess)
	assert.Equal(t, `xguard: tenant "TenantA" attempted to access tenant "TenantB"`, err.Error())

	var ue *xguard.UnauthorizedAccessError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, tenantA, ue.Source)
	assert.Equal(t, tenantB, ue.Target)

	err = g.CheckAccess(context.Background(), xtenantkey.Null(), xtenantkey.New(""))
	assert.EqualError(t, err, `xguard: tenant "NULL" attempted to access tenant ""`)
}

func TestSameTenantNeverConsultsAuthorizer(t *testing.T) {
	ctrl := gomock.NewController(t)
	auth := NewMockAuthorizer(ctrl)
	g := xguard.NewGuard(xguard.WithAuthorizer(auth))

	for _, id := range []xtenantkey.ID{xtenantkey.Null(), xtenantkey.New(""), tenantA} {
		assert.NoError(t, g.CheckAccess(context.Background(), id, id))
	}
}

func TestAuthorizationIsNotSymmetric(t *testing.T) {
	ctrl := gomock.NewController(t)
	auth := NewMockAuthorizer(ctrl)
	auth.EXPECT().IsAccessAuthorized(gomock.Any(), tenantA, tenantB).Return(true, nil)
	auth.EXPECT().IsAccessAuthorized(gomock.Any(), tenantB, tenantA).Return(false, nil)

	g := xguard.NewGuard(xguard.WithAuthorizer(auth))
	assert.NoError(t, g.CheckAccess(context.Background(), tenantA, tenantB))
	assert.ErrorIs(t, g.CheckAccess(context.Background(), tenantB, tenantA), xguard.ErrUnauthorizedAccess)
}

func TestAuthorizerErrorIsDenial(t *testing.T) {
	boom := errors.New("policy store down")
	g := xguard.NewGuard(xguard.WithAuthorizer(xguard.AuthorizerFunc(
		func(context.Context, xtenantkey.ID, xtenantkey.ID) (bool, error) { return true, boom })))

	err := g.CheckAccess(context.Background(), tenantA, tenantB)
	assert.ErrorIs(t, err, xguard.ErrUnauthorizedAccess)
	assert.ErrorIs(t, err, boom)
}

func TestAllowAll(t *testing.T) {
	g := xguard.NewGuard(xguard.WithAuthorizer(xguard.AllowAll()))
	assert.NoError(t, g.CheckAccess(context.Background(), tenantA, tenantB))
}

func TestCallFilter(t *testing.T) {
	client := xgrain.NewGrainID(xgrain.ClientTypePrefix+"/1", "c")
	systemTarget := xgrain.NewGrainID(xgrain.SystemTargetPrefix+"membership", "s")

	for _, tc := range []struct {
		name     string
		call     xgrain.Call
		wantDeny bool
	}{
		{
			name:     "cross tenant",
			call:     xgrain.Call{Source: grainOf(tenantA, "1"), HasSource: true, Target: grainOf(tenantB, "1"), Interface: "app.Counter"},
			wantDeny: true,
		},
		{
			name: "same tenant",
			call: xgrain.Call{Source: grainOf(tenantA, "1"), HasSource: true, Target: grainOf(tenantA, "2"), Interface: "app.Counter"},
		},
		{
			name: "null to null",
			call: xgrain.Call{Source: grainOf(xtenantkey.Null(), "1"), HasSource: true, Target: grainOf(xtenantkey.Null(), "2"), Interface: "app.Counter"},
		},
		{
			name:     "null to tenant",
			call:     xgrain.Call{Source: grainOf(xtenantkey.Null(), "1"), HasSource: true, Target: grainOf(tenantA, "2"), Interface: "app.Counter"},
			wantDeny: true,
		},
		{
			name: "runtime interface",
			call: xgrain.Call{Source: grainOf(tenantA, "1"), HasSource: true, Target: grainOf(tenantB, "1"), Interface: xgrain.SystemInterfacePrefix + "Reminders"},
		},
		{
			name: "no source",
			call: xgrain.Call{Target: grainOf(tenantB, "1"), Interface: "app.Counter"},
		},
		{
			name: "client source",
			call: xgrain.Call{Source: client, HasSource: true, Target: grainOf(tenantB, "1"), Interface: "app.Counter"},
		},
		{
			name: "system target source",
			call: xgrain.Call{Source: systemTarget, HasSource: true, Target: grainOf(tenantB, "1"), Interface: "app.Counter"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			invoked := false
			call := tc.call
			call.Handler = func(context.Context) error {
				invoked = true
				return nil
			}
			err := xgrain.Dispatch(context.Background(), &call, xguard.NewCallFilter(nil, nil))
			if tc.wantDeny {
				assert.ErrorIs(t, err, xguard.ErrUnauthorizedAccess)
				assert.False(t, invoked)
				return
			}
			assert.NoError(t, err)
			assert.True(t, invoked)
		})
	}
}

func TestCustomSeparator(t *testing.T) {
	separator := xguard.NewInterfacePrefixSeparator("", "public.")
	filter := xguard.NewCallFilter(xguard.NewGuard(), separator)
	call := &xgrain.Call{
		Source: grainOf(tenantA, "1"), HasSource: true,
		Target: grainOf(tenantB, "1"), Interface: "public.Directory",
	}
	assert.NoError(t, filter.Check(context.Background(), call))

	call.Interface = xgrain.SystemInterfacePrefix + "Reminders"
	assert.ErrorIs(t, filter.Check(context.Background(), call), xguard.ErrUnauthorizedAccess)

	all := xguard.SeparatorFunc(func(xgrain.IncomingCallContext) bool { return false })
	assert.NoError(t, xguard.NewCallFilter(nil, all).Check(context.Background(), call))
}
