// Package xgrain 定义多租户层与 grain 运行时之间的边界契约。
//
// 运行时本身（激活、放置、消息传输）不在本模块范围内，这里只描述多租户层
// 消费和暴露的接口：
//
//   - 寻址原语：[GrainID]、[StreamID]，key 以原始字节暴露，供租户编码读写
//   - 生命周期：[Lifecycle]、[Observer]、[LifecycleParticipant] 与阶段常量
//   - 拦截钩子：[IncomingCallFilter]、[StreamFilter]
//   - 寻址入口：[GrainFactory]、[StreamProvider]
//
// 另外提供进程内的 [SiloLifecycle]，宿主可用它驱动启动与停止，测试中也用它
// 代替真实运行时。
package xgrain
