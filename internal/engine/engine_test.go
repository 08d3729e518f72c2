package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/cryfox/vaultcore/internal/common"
	"github.com/cryfox/vaultcore/internal/config"
	"github.com/cryfox/vaultcore/internal/kdf"
	"github.com/cryfox/vaultcore/internal/logging"
	"github.com/cryfox/vaultcore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	var cfg config.Config
	cfg.LoadDefaults(t.TempDir())
	return &cfg
}

func openEngine(t *testing.T, cfg *config.Config) *Engine {
	t.Helper()
	e, err := Open(context.Background(), cfg, logging.Nop(),
		WithKDFParams(kdf.Params{Time: 1, Memory: 64, Threads: 1, KeyLen: kdf.KeySize}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestOpen_FreshInstall(t *testing.T) {
	cfg := testConfig(t)
	e := openEngine(t, cfg)

	assert.False(t, e.IsSetup())
	assert.Equal(t, models.StateUninitialized, e.State())
	assert.ErrorIs(t, e.LoadErr(), common.ErrRecordAbsent)

	fi, err := os.Stat(cfg.ConfigDir)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o700), fi.Mode().Perm())
	}
	_, err = os.Stat(cfg.DBPath())
	require.NoError(t, err)
}

func TestEndToEnd_AcrossRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	e := openEngine(t, cfg)
	require.NoError(t, e.SetupMasterPassword(ctx, []byte("hunter2")))
	ok, err := e.VerifyMasterPassword(ctx, []byte("hunter2"))
	require.NoError(t, err)
	require.True(t, ok)

	entry := &models.CredentialEntry{URL: "example.com", Username: "a", Password: "p@ss"}
	require.NoError(t, e.Add(ctx, entry))
	require.NoError(t, e.Close())
	assert.False(t, e.IsAuthenticated(), "close signs out")

	// restart
	e2 := openEngine(t, cfg)
	assert.True(t, e2.IsSetup())
	assert.Equal(t, models.StateLocked, e2.State())

	_, err = e2.List(ctx)
	require.ErrorIs(t, err, common.ErrNotAuthenticated)

	ok, err = e2.VerifyMasterPassword(ctx, []byte("Hunter2"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e2.VerifyMasterPassword(ctx, []byte("hunter2"))
	require.NoError(t, err)
	require.True(t, ok)

	list, err := e2.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p@ss", list[0].Password)

	got, err := e2.Search(ctx, "EXAMPLE")
	require.NoError(t, err)
	require.Len(t, got, 1)

	entry.ID = list[0].ID
	entry.Password = "new"
	require.NoError(t, e2.Update(ctx, entry))
	one, err := e2.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", one.Password)

	require.NoError(t, e2.Delete(ctx, entry.ID))
	require.NoError(t, e2.Delete(ctx, entry.ID))
	list, err = e2.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	e2.SignOut()
	assert.Equal(t, models.StateLocked, e2.State())
}

func TestEngines_AreIsolated(t *testing.T) {
	ctx := context.Background()
	a := openEngine(t, testConfig(t))
	b := openEngine(t, testConfig(t))

	require.NoError(t, a.SetupMasterPassword(ctx, []byte("pw")))
	assert.True(t, a.IsSetup())
	assert.False(t, b.IsSetup())
}

func TestOpen_ConcurrentEngines(t *testing.T) {
	const n = 4
	cfgs := make([]*config.Config, n)
	for i := range cfgs {
		cfgs[i] = testConfig(t)
	}

	var wg sync.WaitGroup
	engines := make([]*Engine, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			engines[i], errs[i] = Open(context.Background(), cfgs[i], logging.Nop(),
				WithKDFParams(kdf.Params{Time: 1, Memory: 64, Threads: 1, KeyLen: kdf.KeySize}))
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		t.Cleanup(func() { _ = engines[i].Close() })
		_, err := os.Stat(cfgs[i].DBPath())
		assert.NoError(t, err)
	}
}

func TestOpen_PathWithURISpecialChars(t *testing.T) {
	for _, name := range []string{"we#ird", "what?now", "100%"} {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			var cfg config.Config
			cfg.LoadDefaults(filepath.Join(root, name))

			openEngine(t, &cfg)

			_, err := os.Stat(cfg.DBPath())
			require.NoError(t, err, "database must live inside the config dir")

			entries, err := os.ReadDir(root)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, name, entries[0].Name())
		})
	}
}

func TestEngine_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	e := openEngine(t, testConfig(t))
	require.NoError(t, e.SetupMasterPassword(ctx, []byte("pw")))
	ok, err := e.VerifyMasterPassword(ctx, []byte("pw"))
	require.NoError(t, err)
	require.True(t, ok)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- e.Add(ctx, &models.CredentialEntry{URL: fmt.Sprintf("site%02d.com", i), Password: "p"})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	list, err := e.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, n)
}

func TestOpen_BadConfigDir(t *testing.T) {
	// a regular file where the config dir should be
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	cfg := testConfig(t)
	cfg.ConfigDir = file

	_, err := Open(context.Background(), cfg, logging.Nop())
	require.ErrorIs(t, err, common.ErrStorageFailure)
}

func TestClose_Twice(t *testing.T) {
	e := openEngine(t, testConfig(t))
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
}

func TestDeleteMany(t *testing.T) {
	ctx := context.Background()
	e := openEngine(t, testConfig(t))
	require.NoError(t, e.SetupMasterPassword(ctx, []byte("pw")))

	require.ErrorIs(t, e.DeleteMany(ctx, []int64{1}), common.ErrNotAuthenticated)

	ok, err := e.VerifyMasterPassword(ctx, []byte("pw"))
	require.NoError(t, err)
	require.True(t, ok)

	var ids []int64
	for _, site := range []string{"a.example", "b.example", "c.example"} {
		entry := &models.CredentialEntry{URL: site, Password: "x"}
		require.NoError(t, e.Add(ctx, entry))
		ids = append(ids, entry.ID)
	}

	require.NoError(t, e.DeleteMany(ctx, []int64{ids[0], ids[2], 999}))

	list, err := e.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b.example", list[0].URL)

	require.NoError(t, e.DeleteMany(ctx, nil))
}
