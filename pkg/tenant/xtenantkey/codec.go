package xtenantkey

import (
	"bytes"
	"strings"
)

const (
	// Separator 分隔租户段与租户内 key。
	Separator byte = '|'

	// Escape 用于消除 key 开头的歧义。
	Escape byte = '~'
)

// Encode 返回租户限定 key。
func Encode(id ID, keyWithinTenant string) string {
	return string(AppendEncode(make([]byte, 0, encodedLen(id, keyWithinTenant)), id, keyWithinTenant))
}

// AppendEncode 把租户限定 key 追加到 dst。
func AppendEncode(dst []byte, id ID, keyWithinTenant string) []byte {
	if id.IsNull() {
		return appendEscaped(dst, keyWithinTenant)
	}
	dst = AppendSegment(dst, id)
	if keyWithinTenant != "" && (keyWithinTenant[0] == Escape || keyWithinTenant[0] == Separator) {
		dst = append(dst, Escape)
	}
	return append(dst, keyWithinTenant...)
}

// AppendSegment 把 id 的租户段追加到 dst，null 租户不追加任何内容。
func AppendSegment(dst []byte, id ID) []byte {
	if id.IsNull() {
		return dst
	}
	dst = appendEscaped(dst, id.value)
	return append(dst, Separator)
}

// Decode 拆分租户限定 key。
func Decode(qualified string) (ID, string) {
	return Split([]byte(qualified))
}

// Split 拆分租户限定 key 的原始字节。
func Split(qualified []byte) (ID, string) {
	sep := separatorIndex(qualified)
	if sep < 0 {
		return Null(), unescape(qualified)
	}
	return New(unescape(qualified[:sep])), keyAfter(qualified[sep+1:])
}

// DecodeTenant 返回 key 所属的租户。
func DecodeTenant(qualified []byte) ID {
	sep := separatorIndex(qualified)
	if sep < 0 {
		return Null()
	}
	return New(unescape(qualified[:sep]))
}

// DecodeKeyWithinTenant 返回租户内 key。
func DecodeKeyWithinTenant(qualified []byte) string {
	sep := separatorIndex(qualified)
	if sep < 0 {
		return unescape(qualified)
	}
	return keyAfter(qualified[sep+1:])
}

// Segment 返回 qualified 中的租户段（含末尾分隔符），null 租户返回空切片。
// 返回值与 qualified 共享底层数组。
func Segment(qualified []byte) []byte {
	sep := separatorIndex(qualified)
	if sep < 0 {
		return qualified[:0]
	}
	return qualified[:sep+1]
}

// SameTenant 不解码地比较两个 key 是否属于同一租户。
func SameTenant(a, b []byte) bool {
	return bytes.Equal(Segment(a), Segment(b))
}

// separatorIndex 返回第一个不成对分隔符的下标，不存在时返回 -1。
func separatorIndex(q []byte) int {
	for i := 0; i < len(q); i++ {
		if q[i] != Separator {
			continue
		}
		if i+1 < len(q) && q[i+1] == Separator {
			i++
			continue
		}
		return i
	}
	return -1
}

func keyAfter(rest []byte) string {
	if len(rest) >= 2 && rest[0] == Escape && (rest[1] == Escape || rest[1] == Separator) {
		rest = rest[1:]
	}
	return string(rest)
}

func appendEscaped(dst []byte, s string) []byte {
	for {
		i := strings.IndexByte(s, Separator)
		if i < 0 {
			return append(dst, s...)
		}
		dst = append(dst, s[:i+1]...)
		dst = append(dst, Separator)
		s = s[i+1:]
	}
}

// unescape 把成对的分隔符还原为单个。
func unescape(b []byte) string {
	if bytes.IndexByte(b, Separator) < 0 {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for i := 0; i < len(b); i++ {
		sb.WriteByte(b[i])
		if b[i] == Separator && i+1 < len(b) && b[i+1] == Separator {
			i++
		}
	}
	return sb.String()
}

func encodedLen(id ID, key string) int {
	n := len(key) + strings.Count(key, string(Separator))
	if !id.IsNull() {
		n += len(id.value) + strings.Count(id.value, string(Separator)) + 2
	}
	return n
}
