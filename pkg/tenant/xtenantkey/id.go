package xtenantkey

// NullSentinel 是 null 租户在日志与错误信息中的字面表示。
const NullSentinel = "NULL"

// ID 是可为 null 的租户 ID。零值即 null 租户。
// ID 可直接用 == 比较：两个 null 相等，两个非 null 在字符串相等时相等。
type ID struct {
	value string
	valid bool
}

// Null 返回 null 租户。
func Null() ID {
	return ID{}
}

// New 返回非 null 租户，s 可以为空字符串。
func New(s string) ID {
	return ID{value: s, valid: true}
}

// IsNull 报告是否为 null 租户。
func (id ID) IsNull() bool {
	return !id.valid
}

// Value 返回租户字符串，null 租户返回 ("", false)。
func (id ID) Value() (string, bool) {
	return id.value, id.valid
}

// String 返回租户字符串，null 租户返回 [NullSentinel]。
func (id ID) String() string {
	if !id.valid {
		return NullSentinel
	}
	return id.value
}

// Segment 返回编码后的租户段（含末尾分隔符），null 租户返回空字符串。
// 不同的 ID 段必不相同，可用作缓存与锁的 key。
func (id ID) Segment() string {
	return string(AppendSegment(nil, id))
}
