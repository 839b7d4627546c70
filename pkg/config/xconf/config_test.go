package xconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storageSection struct {
	InitTimeoutSeconds int    `koanf:"init_timeout_seconds"`
	NullTenantLabel    string `koanf:"null_tenant_label"`
}

const yamlDoc = `
storage:
  grains:
    init_timeout_seconds: 30
    null_tenant_label: Shared
`

const jsonDoc = `{"storage":{"grains":{"init_timeout_seconds":30,"null_tenant_label":"Shared"}}}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewFromFile(t *testing.T) {
	for _, tc := range []struct {
		name, file, content string
		format              Format
	}{
		{"yaml", "c.yaml", yamlDoc, FormatYAML},
		{"yml", "c.yml", yamlDoc, FormatYAML},
		{"json", "c.json", jsonDoc, FormatJSON},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, tc.file, tc.content)
			cfg, err := New(path)
			require.NoError(t, err)
			assert.Equal(t, path, cfg.Path())
			assert.Equal(t, tc.format, cfg.Format())
			assert.True(t, cfg.Exists("storage.grains"))

			var s storageSection
			require.NoError(t, cfg.Unmarshal("storage.grains", &s))
			assert.Equal(t, storageSection{InitTimeoutSeconds: 30, NullTenantLabel: "Shared"}, s)
		})
	}
}

func TestNewErrors(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = New("config.toml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrLoadFailed)

	_, err = New(writeFile(t, "bad.json", "{"))
	assert.ErrorIs(t, err, ErrParseFailed)
}

func TestNewFromBytes(t *testing.T) {
	cfg, err := NewFromBytes([]byte(yamlDoc), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, cfg.Path())
	assert.Equal(t, 30, cfg.Client().Int("storage.grains.init_timeout_seconds"))
	assert.ErrorIs(t, cfg.Reload(), ErrNotReloadable)

	empty, err := NewFromBytes(nil, FormatJSON)
	require.NoError(t, err)
	assert.False(t, empty.Exists("storage"))

	_, err = NewFromBytes([]byte(yamlDoc), "toml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReloadReplacesContent(t *testing.T) {
	path := writeFile(t, "c.yaml", yamlDoc)
	cfg, err := New(path)
	require.NoError(t, err)
	old := cfg.Client()

	require.NoError(t, os.WriteFile(path, []byte("storage:\n  grains:\n    init_timeout_seconds: 5\n"), 0o600))
	require.NoError(t, cfg.Reload())
	assert.Equal(t, 5, cfg.Client().Int("storage.grains.init_timeout_seconds"))
	assert.Equal(t, 30, old.Int("storage.grains.init_timeout_seconds"))

	// 解析失败时保留旧内容
	require.NoError(t, os.WriteFile(path, []byte("storage: ["), 0o600))
	assert.ErrorIs(t, cfg.Reload(), ErrParseFailed)
	assert.Equal(t, 5, cfg.Client().Int("storage.grains.init_timeout_seconds"))
}

func TestUnmarshalError(t *testing.T) {
	cfg, err := NewFromBytes([]byte(`{"storage":{"grains":{"init_timeout_seconds":"abc"}}}`), FormatJSON)
	require.NoError(t, err)
	var s storageSection
	assert.ErrorIs(t, cfg.Unmarshal("storage.grains", &s), ErrUnmarshalFailed)
	assert.Panics(t, func() { MustUnmarshal(cfg, "storage.grains", &s) })
}

func TestOptions(t *testing.T) {
	cfg, err := NewFromBytes([]byte(yamlDoc), FormatYAML, WithDelim("/"), WithTag("koanf"), nil)
	require.NoError(t, err)
	assert.True(t, cfg.Exists("storage/grains/null_tenant_label"))
}
