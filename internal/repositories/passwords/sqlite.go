package passwords

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cryfox/vaultcore/internal/common"
	"github.com/cryfox/vaultcore/internal/dbx"
	"github.com/cryfox/vaultcore/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, c *models.StoredCredential) (int64, error) {
	query := `INSERT INTO passwords (url, username, encrypted_password, last_modified)
			VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, c.URL, c.Username, c.EncryptedPassword, c.LastModified)
	if err != nil {
		return 0, fmt.Errorf("failed to insert password: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted id: %w", err)
	}
	return id, nil
}

// GetAll lists all rows by url, with id breaking ties so the order is stable.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.StoredCredential, error) {
	query := `SELECT id, url, username, encrypted_password, last_modified
			FROM passwords ORDER BY url ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select passwords: %w", err)
	}
	defer rows.Close()

	var result []models.StoredCredential
	for rows.Next() {
		item, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.StoredCredential, error) {
	query := `SELECT id, url, username, encrypted_password, last_modified
			FROM passwords WHERE id = ?`
	item, err := scanCredential(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, c *models.StoredCredential) error {
	query := `UPDATE passwords
			SET url = ?, username = ?, encrypted_password = ?, last_modified = ?
			WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, c.URL, c.Username, c.EncryptedPassword, c.LastModified, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM passwords WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete password: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(s scanner) (*models.StoredCredential, error) {
	var (
		c        models.StoredCredential
		username sql.NullString
	)
	if err := s.Scan(&c.ID, &c.URL, &username, &c.EncryptedPassword, &c.LastModified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	c.Username = username.String
	return &c, nil
}
