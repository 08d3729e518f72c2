package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/cryfox/vaultcore/internal/common"
	"github.com/cryfox/vaultcore/internal/dbx"
	"github.com/cryfox/vaultcore/internal/kdf"
	"github.com/cryfox/vaultcore/internal/logging"
	"github.com/cryfox/vaultcore/internal/models"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

func cheapParams() kdf.Params {
	return kdf.Params{Time: 1, Memory: 64, Threads: 1, KeyLen: kdf.KeySize}
}

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := dbx.OpenSQLite(context.Background(), ":memory:", logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// ---- fake auth record store ----

type fakeRecordStore struct {
	mu      sync.Mutex
	rec     *models.AuthRecord
	loadErr error
	saveErr error
	saves   int
}

func (f *fakeRecordStore) Load(ctx context.Context) (*models.AuthRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.rec == nil {
		return nil, common.ErrRecordAbsent
	}
	return &models.AuthRecord{Hash: common.CloneBytes(f.rec.Hash), Salt: common.CloneBytes(f.rec.Salt)}, nil
}

func (f *fakeRecordStore) Save(ctx context.Context, rec *models.AuthRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.rec = &models.AuthRecord{Hash: common.CloneBytes(rec.Hash), Salt: common.CloneBytes(rec.Salt)}
	return nil
}

// ---- fake key provider ----

type fakeKeys struct {
	key []byte
}

func (f *fakeKeys) IsAuthenticated() bool { return f.key != nil }
func (f *fakeKeys) SessionKey() []byte    { return common.CloneBytes(f.key) }

// ---- recording passwords repository ----

var errRepoDown = errors.New("disk on fire")

type recordingRepo struct {
	calls []string
	err   error
}

func (r *recordingRepo) Insert(ctx context.Context, c *models.StoredCredential) (int64, error) {
	r.calls = append(r.calls, "Insert")
	return 0, r.err
}

func (r *recordingRepo) GetAll(ctx context.Context) ([]models.StoredCredential, error) {
	r.calls = append(r.calls, "GetAll")
	return nil, r.err
}

func (r *recordingRepo) GetByID(ctx context.Context, id int64) (*models.StoredCredential, error) {
	r.calls = append(r.calls, "GetByID")
	return nil, r.err
}

func (r *recordingRepo) Update(ctx context.Context, c *models.StoredCredential) error {
	r.calls = append(r.calls, "Update")
	return r.err
}

func (r *recordingRepo) Delete(ctx context.Context, id int64) error {
	r.calls = append(r.calls, "Delete")
	return r.err
}
