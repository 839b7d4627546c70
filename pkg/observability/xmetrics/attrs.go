package xmetrics

import "github.com/omeyang/xmultitenant/pkg/tenant/xtenantkey"

// 属性 key。
const (
	KeyTenant   = "tenant.id"
	KeyProvider = "provider.name"
	KeyStage    = "lifecycle.stage"
)

func String(key, value string) Attr {
	return Attr{Key: key, Value: value}
}

func Int(key string, value int) Attr {
	return Attr{Key: key, Value: value}
}

func Bool(key string, value bool) Attr {
	return Attr{Key: key, Value: value}
}

// Tenant 返回租户属性，null 租户记为 NULL。
func Tenant(id xtenantkey.ID) Attr {
	return Attr{Key: KeyTenant, Value: id.String()}
}

// Provider 返回 provider 名属性。
func Provider(name string) Attr {
	return Attr{Key: KeyProvider, Value: name}
}
