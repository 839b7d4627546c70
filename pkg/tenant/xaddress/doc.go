// Package xaddress 提供租户范围内的 grain 与流寻址。
//
// GrainFactory 与 StreamProvider 绑定一个租户，调用方只提供租户内 key，
// 限定 key 由 xtenantkey 编码生成：
//
//	f := xaddress.ForGrain(factory, self)          // 与当前 grain 同一租户
//	ref := f.GetGrain("app.counter", "c1")
//
//	sp := xaddress.StreamProviderForGrain(provider, self)
//	s, err := xaddress.GetStreamByKey[Order](sp, "orders", "o1")
//	err = s.OnNext(ctx, order)
//
// 访问其他租户需要通过 ForTenantAs / StreamProviderForTenantAs，由 xguard.Guard 授权。
//
// 租户流上的事件以 Event 包装发布。StreamFilter 安装在底层流 provider 上，
// 丢弃并记录未经包装的事件，避免绕过租户 API 的发布进入租户订阅。
package xaddress
