// Package xprovider 按租户惰性创建并缓存 provider 实例。
//
// Multiplexer 是一个具名 provider（例如某个 grain 存储）对外的唯一实例，
// 内部为每个租户持有一个独立的 provider：
//
//	m, err := xprovider.New("grains", factory, xprovider.WithInitTimeout(30*time.Second))
//	m.Participate(siloLifecycle)            // 宿主启动前
//	p, err := m.Get(ctx, xtenantkey.New("acme"))
//
// 首次访问某租户时在该租户的锁内调用 Factory。若 provider 实现了
// xgrain.LifecycleParticipant，它会先在 xlifecycle.Replayer 上订阅，
// 然后在 InitTimeout 内重放宿主已经历的启动过程，之后才进入缓存。
// 创建失败与超时都不缓存，下次访问会重试。
//
// 缓存命中走无锁路径；不同租户的创建互不阻塞。
package xprovider
