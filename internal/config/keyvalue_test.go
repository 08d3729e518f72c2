package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cryfox/vaultcore/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyValue(t *testing.T) {
	in := strings.Join([]string{
		"# identity service",
		"",
		"   SUPABASE_URL = https://abc.supabase.co   ",
		"SUPABASE_ANON_KEY=eyJhbGciOi",
		"NO_EQUALS_SIGN",
		"TWO=EQUALS=SIGNS",
		"  # indented comment",
		"EMPTY=",
		"DUP=first",
		"DUP=second",
		"\tTABBED\t=\tvalue\t",
	}, "\n")

	got, err := ParseKeyValue(strings.NewReader(in))
	require.NoError(t, err)

	want := map[string]string{
		"SUPABASE_URL":      "https://abc.supabase.co",
		"SUPABASE_ANON_KEY": "eyJhbGciOi",
		"EMPTY":             "",
		"DUP":               "second",
		"TABBED":            "value",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ParseKeyValue mismatch (-want +got):\n%s", diff)
	}
}

func TestParseKeyValue_CRLF(t *testing.T) {
	got, err := ParseKeyValue(strings.NewReader("A=1\r\nB=2\r\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, got)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("io broke") }

func TestParseKeyValue_ReadError(t *testing.T) {
	_, err := ParseKeyValue(failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "io broke")
}

func TestFindIdentityConfig(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()
	homeFile := writeFile(t, filepath.Join(DefaultDir(home), IdentityConfigName), "X=1")

	t.Run("falls back to home", func(t *testing.T) {
		p, err := FindIdentityConfig(cwd, home)
		require.NoError(t, err)
		assert.Equal(t, homeFile, p)
	})

	t.Run("cwd wins", func(t *testing.T) {
		local := writeFile(t, filepath.Join(cwd, IdentityConfigName), "X=2")
		p, err := FindIdentityConfig(cwd, home)
		require.NoError(t, err)
		assert.Equal(t, local, p)
	})

	t.Run("nothing found", func(t *testing.T) {
		_, err := FindIdentityConfig(t.TempDir(), "")
		require.ErrorIs(t, err, common.ErrConfigurationMissing)
	})
}

func TestLoadIdentitySettings(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    *IdentitySettings
		wantErr string
	}{
		{
			name:    "ok",
			content: "SUPABASE_URL=https://x.supabase.co\nSUPABASE_ANON_KEY=anon\n",
			want:    &IdentitySettings{URL: "https://x.supabase.co", AnonKey: "anon"},
		},
		{name: "missing url", content: "SUPABASE_ANON_KEY=anon\n", wantErr: KeyIdentityURL},
		{name: "empty key", content: "SUPABASE_URL=https://x\nSUPABASE_ANON_KEY=\n", wantErr: KeyIdentityAnonKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, filepath.Join(dir, tt.name, IdentityConfigName), tt.content)

			got, err := LoadIdentitySettings(path)
			if tt.wantErr != "" {
				require.ErrorIs(t, err, common.ErrConfigurationMissing)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadIdentitySettings_MissingFile(t *testing.T) {
	_, err := LoadIdentitySettings(filepath.Join(t.TempDir(), IdentityConfigName))
	require.ErrorIs(t, err, common.ErrConfigurationMissing)
}

func TestResolveIdentitySettings(t *testing.T) {
	home := withHome(t)
	t.Chdir(t.TempDir())
	writeFile(t, filepath.Join(DefaultDir(home), IdentityConfigName), "SUPABASE_URL=https://h\nSUPABASE_ANON_KEY=k\n")

	s, err := ResolveIdentitySettings()
	require.NoError(t, err)
	assert.Equal(t, &IdentitySettings{URL: "https://h", AnonKey: "k"}, s)
}
