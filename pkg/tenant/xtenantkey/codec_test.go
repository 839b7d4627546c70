package xtenantkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtures = []struct {
	tenant    ID
	key       string
	qualified string
}{
	{Null(), "", ""},
	{Null(), "Key2", "Key2"},
	{Null(), "|", "||"},
	{Null(), "|~Key7", "||~Key7"},
	{New(""), "", "|"},
	{New("A"), "", "A|"},
	{New("TenantB"), "Key2", "TenantB|Key2"},
	{New("Te|antB"), "Key2", "Te||antB|Key2"},
	{New("C"), "|Key6", "C|~|Key6"},
	{New("D"), "~Key7", "D|~~Key7"},
}

func TestEncodeFixtures(t *testing.T) {
	for _, f := range fixtures {
		t.Run(f.qualified, func(t *testing.T) {
			assert.Equal(t, f.qualified, Encode(f.tenant, f.key))
			assert.Equal(t, f.qualified, string(AppendEncode(nil, f.tenant, f.key)))
		})
	}
}

func TestDecodeFixtures(t *testing.T) {
	for _, f := range fixtures {
		t.Run(f.qualified, func(t *testing.T) {
			id, key := Decode(f.qualified)
			assert.Equal(t, f.tenant, id)
			assert.Equal(t, f.key, key)
			assert.Equal(t, f.tenant, DecodeTenant([]byte(f.qualified)))
			assert.Equal(t, f.key, DecodeKeyWithinTenant([]byte(f.qualified)))
		})
	}
}

func TestRoundTripReservedCharacters(t *testing.T) {
	values := []string{"", "|", "~", "||", "~~", "|~", "~|", "a|b", "a~b", "|a|", "~a~", "||~||", "a|", "a~"}
	tenants := []ID{Null()}
	for _, v := range values {
		tenants = append(tenants, New(v))
	}
	for _, tenant := range tenants {
		for _, key := range values {
			q := Encode(tenant, key)
			id, got := Decode(q)
			require.Equal(t, tenant, id, "tenant %q key %q encoded %q", tenant, key, q)
			require.Equal(t, key, got, "tenant %q key %q encoded %q", tenant, key, q)
		}
	}
}

func TestNullAndEmptyTenantsAreDistinct(t *testing.T) {
	for _, key := range []string{"", "k", "|", "~", "|k"} {
		n, e := Encode(Null(), key), Encode(New(""), key)
		assert.NotEqual(t, n, e, "key %q", key)
		assert.True(t, DecodeTenant([]byte(n)).IsNull())
		assert.False(t, DecodeTenant([]byte(e)).IsNull())
	}
	assert.NotEqual(t, Null().Segment(), New("").Segment())
}

func TestSegment(t *testing.T) {
	assert.Empty(t, Segment([]byte("Key2")))
	assert.Equal(t, "Te||antB|", string(Segment([]byte("Te||antB|Key2"))))
	assert.Equal(t, "|", string(Segment([]byte("|"))))
	assert.Equal(t, "Te||antB|", New("Te|antB").Segment())
	assert.Equal(t, "", Null().Segment())

	assert.True(t, SameTenant([]byte("A|x"), []byte("A|~|y")))
	assert.True(t, SameTenant([]byte("x"), []byte("||y")))
	assert.False(t, SameTenant([]byte("x"), []byte("|x")))
	assert.False(t, SameTenant([]byte("A|x"), []byte("B|x")))
}

func TestIDString(t *testing.T) {
	assert.Equal(t, NullSentinel, Null().String())
	assert.Equal(t, "", New("").String())
	v, ok := New("x").Value()
	assert.Equal(t, "x", v)
	assert.True(t, ok)
	_, ok = Null().Value()
	assert.False(t, ok)
	assert.True(t, ID{} == Null())
}

func TestDecodeNonCanonicalInput(t *testing.T) {
	// 不是 Encode 产物的输入也能解码
	id, key := Decode("A|~x")
	assert.Equal(t, New("A"), id)
	assert.Equal(t, "~x", key)

	id, key = Decode("a|b|c")
	assert.Equal(t, New("a"), id)
	assert.Equal(t, "b|c", key)
}

func FuzzRoundTrip(f *testing.F) {
	f.Add(false, "", "")
	f.Add(true, "", "")
	f.Add(true, "Te|antB", "|~Key7")
	f.Add(true, "~", "~|")

	f.Fuzz(func(t *testing.T, hasTenant bool, tenant, key string) {
		id := Null()
		if hasTenant {
			id = New(tenant)
		}
		q := Encode(id, key)
		gotID, gotKey := Decode(q)
		if gotID != id || gotKey != key {
			t.Fatalf("round trip (%v,%q) via %q = (%v,%q)", id, key, q, gotID, gotKey)
		}
	})
}

func FuzzDecodeTotal(f *testing.F) {
	f.Add("")
	f.Add("|||~~")
	f.Fuzz(func(t *testing.T, q string) {
		id, key := Decode(q)
		assert.Equal(t, id, DecodeTenant([]byte(q)))
		assert.Equal(t, key, DecodeKeyWithinTenant([]byte(q)))
	})
}

func BenchmarkEncode(b *testing.B) {
	id := New("Te|antB")
	for b.Loop() {
		_ = Encode(id, "|Key6")
	}
}
