// Package xlifecycle 为延迟创建的租户 provider 录制并重放运行时的启动过程。
//
// 运行时只允许在阶段开始前订阅该阶段，而租户 provider 在首次访问时才创建，
// 这时运行时早已启动完毕。[Recorder] 在宿主启动期间订阅所有阶段区间，按顺序
// 记录每个区间的启动事件；之后每创建一个租户 provider，就为它准备一个
// [Replayer]，provider 在 Participate 中向 Replayer 订阅，再调用
// [Replayer.Replay] 按原顺序收到启动通知。
//
// 停止事件不录制：Recorder 在真实停止时把事件转发给所有存活的 Replayer，
// 并等待全部完成。
//
// # 顺序
//
//   - 重放按录制顺序逐个处理事件，只调用阶段落在该事件区间内的订阅
//   - 区间内按阶段升序分组，同一阶段并发执行，全部完成后才进入下一阶段
//   - 停止按阶段降序分组；一旦收到停止，进行中的重放在下一个事件前结束
//
// 重放逻辑由纯函数 [ReplayStart] 与 [ForwardStop] 实现，不依赖调度器，测试中
// 可以直接同步调用。
package xlifecycle
