package xlog

import (
	"log/slog"
	"time"

	"github.com/omeyang/xmultitenant/pkg/tenant/xtenantkey"
)

// 标准字段名。
const (
	KeyError     = "error"
	KeyStack     = "stack"
	KeyDuration  = "duration"
	KeyCount     = "count"
	KeyComponent = "component"
	KeyOperation = "operation"
	KeyTenant    = "tenant_id"
	KeyGrainType = "grain_type"
	KeyProvider  = "provider"
	KeyStage     = "stage"
)

// Err 返回错误属性，err 为 nil 时返回会被 slog 忽略的空属性。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 返回人类可读的耗时属性。
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Tenant 返回租户属性，null 租户输出为 NULL。
func Tenant(id xtenantkey.ID) slog.Attr {
	return slog.String(KeyTenant, id.String())
}

// Provider 返回 provider 名属性。
func Provider(name string) slog.Attr {
	return slog.String(KeyProvider, name)
}

// Stage 返回生命周期阶段属性。
func Stage(stage int) slog.Attr {
	return slog.Int(KeyStage, stage)
}
