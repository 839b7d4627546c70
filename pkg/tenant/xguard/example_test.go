package xguard_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/omeyang/xmultitenant/pkg/tenant/xguard"
	"github.com/omeyang/xmultitenant/pkg/tenant/xtenantkey"
)

func ExampleGuard_CheckAccess() {
	// 只允许 ops 租户访问其他租户
	g := xguard.NewGuard(xguard.WithAuthorizer(xguard.AuthorizerFunc(
		func(_ context.Context, source, _ xtenantkey.ID) (bool, error) {
			return source == xtenantkey.New("ops"), nil
		})))

	ctx := context.Background()
	fmt.Println(g.CheckAccess(ctx, xtenantkey.New("ops"), xtenantkey.New("acme")))
	err := g.CheckAccess(ctx, xtenantkey.New("acme"), xtenantkey.New("ops"))
	fmt.Println(errors.Is(err, xguard.ErrUnauthorizedAccess))
	// Output:
	// <nil>
	// true
}
