package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 是配置格式。
type Format string

// 支持的配置格式。
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config 是只读配置视图。
type Config interface {
	// Client 返回当前的 koanf 实例。Reload 之后旧实例仍可读，但内容不再更新。
	Client() *koanf.Koanf

	// Exists 报告 path 是否存在。
	Exists(path string) bool

	// Unmarshal 把 path 下的配置反序列化到 target，path 为空表示整份配置。
	Unmarshal(path string, target any) error

	// Reload 重新读取文件。从字节创建的 Config 返回 ErrNotReloadable。
	Reload() error

	// Path 返回文件路径，从字节创建时为空。
	Path() string

	// Format 返回配置格式。
	Format() Format
}

type config struct {
	path   string
	format Format
	opts   Options

	mu sync.RWMutex
	k  *koanf.Koanf
}

// New 从文件创建 Config，格式由扩展名决定（.yaml/.yml/.json）。
func New(path string, opts ...Option) (Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	c := &config{path: path, format: format, opts: applyOptions(opts)}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewFromBytes 从内存数据创建 Config。空数据得到空配置。
func NewFromBytes(data []byte, format Format, opts ...Option) (Config, error) {
	if !format.valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	c := &config{format: format, opts: applyOptions(opts)}
	k, err := parse(data, format, c.opts.Delim)
	if err != nil {
		return nil, err
	}
	c.k = k
	return c, nil
}

// MustUnmarshal 在 Unmarshal 失败时 panic，用于启动阶段的必要配置。
func MustUnmarshal(cfg Config, path string, target any) {
	if err := cfg.Unmarshal(path, target); err != nil {
		panic(err)
	}
}

func (c *config) Client() *koanf.Koanf {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.k
}

func (c *config) Exists(path string) bool {
	return c.Client().Exists(path)
}

func (c *config) Unmarshal(path string, target any) error {
	err := c.Client().UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: c.opts.Tag})
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrUnmarshalFailed, path, err)
	}
	return nil
}

func (c *config) Reload() error {
	if c.path == "" {
		return ErrNotReloadable
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	k, err := parse(data, c.format, c.opts.Delim)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.k = k
	c.mu.Unlock()
	return nil
}

func (c *config) Path() string { return c.path }

func (c *config) Format() Format { return c.format }

// FormatOf 根据扩展名推断格式。
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
	}
}

func (f Format) valid() bool {
	return f == FormatYAML || f == FormatJSON
}

func (f Format) parser() koanf.Parser {
	if f == FormatJSON {
		return json.Parser()
	}
	return yaml.Parser()
}

func parse(data []byte, format Format, delim string) (*koanf.Koanf, error) {
	k := koanf.New(delim)
	if len(data) == 0 {
		return k, nil
	}
	if err := k.Load(rawbytes.Provider(data), format.parser()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return k, nil
}
