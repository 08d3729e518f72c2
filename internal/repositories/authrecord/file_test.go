package authrecord

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/cryfox/vaultcore/internal/common"
	"github.com/cryfox/vaultcore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *models.AuthRecord {
	return &models.AuthRecord{
		Hash: bytes.Repeat([]byte{0xAB}, 32),
		Salt: bytes.Repeat([]byte{0x01}, 16),
	}
}

func writeRaw(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".config", "cryfox", "auth.json")
	r := NewFileRepository(path)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, sampleRecord()))

	got, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRecord(), got)

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(filepath.Dir(path))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o700), fi.Mode().Perm())

		fi, err = os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
	}
}

func TestSave_WritesBase64Fields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	r := NewFileRepository(path)
	require.NoError(t, r.Save(context.Background(), sampleRecord()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var m map[string]string
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "AQEBAQEBAQEBAQEBAQEBAQ==", m["salt"])
	assert.Len(t, m, 2)
	assert.Contains(t, m, "hash")
}

func TestSave_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	r := NewFileRepository(path)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, sampleRecord()))

	second := &models.AuthRecord{Hash: bytes.Repeat([]byte{0xCD}, 32), Salt: bytes.Repeat([]byte{0x02}, 16)}
	require.NoError(t, r.Save(ctx, second))

	got, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestLoad_Absent(t *testing.T) {
	r := NewFileRepository(filepath.Join(t.TempDir(), "nope", "auth.json"))

	got, err := r.Load(context.Background())
	require.ErrorIs(t, err, common.ErrRecordAbsent)
	assert.Nil(t, got)
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "{ this is not json"},
		{name: "json array", content: `["hash","salt"]`},
		{name: "missing hash", content: `{"salt":"AQEBAQEBAQEBAQEBAQEBAQ=="}`},
		{name: "empty salt", content: `{"hash":"q6urq6urq6urq6urq6urq6urq6urq6urq6urq6urq6s=","salt":""}`},
		{name: "bad base64", content: `{"hash":"!!!","salt":"AQEBAQEBAQEBAQEBAQEBAQ=="}`},
		{name: "short hash", content: `{"hash":"q6ur","salt":"AQEBAQEBAQEBAQEBAQEBAQ=="}`},
		{name: "wrong field type", content: `{"hash":1,"salt":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "auth.json")
			writeRaw(t, path, tt.content)

			got, err := NewFileRepository(path).Load(context.Background())
			require.ErrorIs(t, err, common.ErrRecordMalformed)
			assert.Nil(t, got)
		})
	}
}

func TestLoad_ReadErrorIsDistinct(t *testing.T) {
	// a directory at the record path cannot be read as a file
	path := filepath.Join(t.TempDir(), "auth.json")
	require.NoError(t, os.Mkdir(path, 0o700))

	_, err := NewFileRepository(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrRecordAbsent)
	assert.NotErrorIs(t, err, common.ErrRecordMalformed)
	assert.Contains(t, err.Error(), "failed to read auth record")
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewFileRepository(filepath.Join(t.TempDir(), "auth.json"))
	require.ErrorIs(t, r.Save(ctx, sampleRecord()), context.Canceled)

	_, err := r.Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
