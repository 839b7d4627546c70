package xgrain

import (
	"bytes"
	"strings"
)

// 运行时保留的 grain 类型前缀。
const (
	// ClientTypePrefix 标识外部客户端的 grain 类型。
	ClientTypePrefix = "sys.client"

	// SystemTargetPrefix 标识运行时内部 system target 的 grain 类型。
	SystemTargetPrefix = "sys.svc."

	// SystemInterfacePrefix 是运行时内部接口名的前缀。
	SystemInterfacePrefix = "xgrain.runtime."
)

// GrainType 是 grain 的类型名。
type GrainType string

// IsClient 报告该类型是否表示外部客户端。
func (t GrainType) IsClient() bool {
	return strings.HasPrefix(string(t), ClientTypePrefix)
}

// IsSystemTarget 报告该类型是否表示运行时内部的 system target。
func (t GrainType) IsSystemTarget() bool {
	return strings.HasPrefix(string(t), SystemTargetPrefix)
}

// GrainID 是 grain 的运行时地址。Key 是不透明的原始字节，多租户层在其中写入
// 租户限定 key。
type GrainID struct {
	Type GrainType
	Key  []byte
}

// NewGrainID 以字符串 key 构造 GrainID。
func NewGrainID(typ GrainType, key string) GrainID {
	return GrainID{Type: typ, Key: []byte(key)}
}

// IsZero 报告 id 是否为零值。
func (id GrainID) IsZero() bool {
	return id.Type == "" && len(id.Key) == 0
}

// Equal 比较两个地址。
func (id GrainID) Equal(other GrainID) bool {
	return id.Type == other.Type && bytes.Equal(id.Key, other.Key)
}

// String 返回 "type/key" 形式。
func (id GrainID) String() string {
	return string(id.Type) + "/" + string(id.Key)
}

// StreamID 是流的运行时地址。
type StreamID struct {
	Namespace string
	Key       []byte
}

// NewStreamID 以字符串 key 构造 StreamID。
func NewStreamID(namespace, key string) StreamID {
	return StreamID{Namespace: namespace, Key: []byte(key)}
}

// Equal 比较两个流地址。
func (id StreamID) Equal(other StreamID) bool {
	return id.Namespace == other.Namespace && bytes.Equal(id.Key, other.Key)
}

// String 返回 "namespace/key" 形式。
func (id StreamID) String() string {
	return id.Namespace + "/" + string(id.Key)
}
