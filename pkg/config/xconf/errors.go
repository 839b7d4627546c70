package xconf

import "errors"

var (
	// ErrEmptyPath 表示配置文件路径为空。
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 表示不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 表示读取配置失败。
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 表示解析配置失败。
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrUnmarshalFailed 表示反序列化失败。
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")

	// ErrNotReloadable 表示 Config 不是从文件创建的，不能重载或监视。
	ErrNotReloadable = errors.New("xconf: config is not backed by a file")
)
