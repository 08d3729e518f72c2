package authrecord

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cryfox/vaultcore/internal/common"
	"github.com/cryfox/vaultcore/internal/filex"
	"github.com/cryfox/vaultcore/internal/kdf"
	"github.com/cryfox/vaultcore/internal/models"
)

// recordJSON is the on-disk DTO.
type recordJSON struct {
	Hash string `json:"hash"`
	Salt string `json:"salt"`
}

// FileRepository implements Repository over a JSON file.
type FileRepository struct {
	path string
}

// NewFileRepository returns a FileRepository bound to path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Path returns the file location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads and validates the record.
func (r *FileRepository) Load(ctx context.Context) (*models.AuthRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.ErrRecordAbsent
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read auth record: %w", err)
	}

	var rj recordJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrRecordMalformed, err)
	}

	hash, err := decodeField("hash", rj.Hash, kdf.KeySize)
	if err != nil {
		return nil, err
	}
	salt, err := decodeField("salt", rj.Salt, kdf.SaltSize)
	if err != nil {
		return nil, err
	}

	return &models.AuthRecord{Hash: hash, Salt: salt}, nil
}

func decodeField(name, value string, size int) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: %s is missing", common.ErrRecordMalformed, name)
	}
	b, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrRecordMalformed, name, err)
	}
	if len(b) != size {
		return nil, fmt.Errorf("%w: %s must be %d bytes, got %d", common.ErrRecordMalformed, name, size, len(b))
	}
	return b, nil
}

// Save writes rec, overwriting any previous record.
func (r *FileRepository) Save(ctx context.Context, rec *models.AuthRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(recordJSON{
		Hash: base64.StdEncoding.EncodeToString(rec.Hash),
		Salt: base64.StdEncoding.EncodeToString(rec.Salt),
	})
	if err != nil {
		return fmt.Errorf("failed to encode auth record: %w", err)
	}

	if err := filex.EnsurePrivateDir(filepath.Dir(r.path)); err != nil {
		return fmt.Errorf("failed to prepare auth record dir: %w", err)
	}
	if err := filex.AtomicWriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write auth record: %w", err)
	}
	return nil
}
