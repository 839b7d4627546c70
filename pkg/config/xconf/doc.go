// Package xconf 加载 YAML/JSON 配置，基于 koanf。
//
// xconf 只负责加载、反序列化与热重载，字段校验由使用方完成，
// 例如 xprovider.LoadOptions 读取 storage.<name> 段后自行校验取值范围。
//
// 从文件创建的 Config 可通过 Watch 监视文件变更（基于 fsnotify），
// 监视的是文件所在目录，编辑器先写临时文件再 rename 的保存方式同样能触发重载。
package xconf
