package xlifecycle

import (
	"github.com/omeyang/xmultitenant/pkg/observability/xlog"
	"github.com/omeyang/xmultitenant/pkg/observability/xmetrics"
)

// Option 配置 Recorder 与 Replayer。
type Option func(*options)

type options struct {
	logger   xlog.Logger
	observer xmetrics.Observer
	name     string
}

func defaultOptions() options {
	return options{observer: xmetrics.NoopObserver{}}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	o.logger = xlog.OrDefault(o.logger)
	return o
}

// WithLogger 设置日志记录器，默认使用 xlog.Default()。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithObserver 设置观测器，默认不观测。
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithName 设置出现在订阅名与日志中的名称，通常是 provider 名。
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}
