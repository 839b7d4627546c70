// Package xmetrics 提供统一的观测抽象，默认实现基于 OpenTelemetry。
//
// 组件通过 [Observer] 开始一次跨度，结束时以 [Result] 记录状态：
//
//	ctx, span := xmetrics.Start(ctx, observer, xmetrics.SpanOptions{
//		Component: "xprovider",
//		Operation: "provider.create",
//		Attrs:     []xmetrics.Attr{xmetrics.Tenant(tenant)},
//	})
//	defer func() { span.End(xmetrics.Result{Err: err}) }()
//
// OTel 实现为每次跨度生成一个 trace span，并记录两个指标：
//
//	xmultitenant.operation.total     counter，按 component/operation/status 分组
//	xmultitenant.operation.duration  histogram，单位秒
//
// ctx 中携带调用方 grain 时（见 xtenant 包），span 自动附加 tenant.id 属性。
package xmetrics
