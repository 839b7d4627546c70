// Package xtenantkey 把 (租户 ID, 租户内 key) 编码为运行时使用的单个不透明 key。
//
// # 编码规则
//
// 分隔符为 '|'，消歧义转义符为 '~'，两者都是单字节。
//
//   - null 租户：key 中每个 '|' 写成 "||"，结果中不存在单独的 '|'
//   - 非 null 租户：租户 ID 中每个 '|' 写成 "||"，然后写一个 '|'，再写 key；
//     key 以 '~' 或 '|' 开头时先多写一个 '~'
//
// 解码时找第一个不成对的 '|'，之前是租户段，之后去掉一个消歧义 '~' 即为 key；
// 找不到时为 null 租户，整串反转义后即为 key。
//
//	(null, "|~Key7")   -> "||~Key7"
//	("", "")           -> "|"
//	("Te|antB", "Key2") -> "Te||antB|Key2"
//	("C", "|Key6")     -> "C|~|Key6"
//	("D", "~Key7")     -> "D|~~Key7"
//
// 编码结果是兼容性契约，任意 (租户, key) 都能精确往返，null 租户与空字符串
// 租户互不混淆。任何字节串都能被解码，解码函数不会 panic。
package xtenantkey
