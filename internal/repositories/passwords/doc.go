// Package passwords provides the persistence layer for stored credentials.
//
// The Repository interface works on models.StoredCredential rows, whose
// password column already holds an encrypted blob. The package never sees
// plaintext passwords or keys; encryption is the caller's job.
//
// SQLiteRepository is backed by a dbx.DBTX, so the same code runs against
// *sql.DB or inside a transaction opened with dbx.WithTx.
//
// Typical usage
//
//	repo := passwords.NewSQLiteRepository(db)
//	id, _ := repo.Insert(ctx, &models.StoredCredential{...})
//	rows, _ := repo.GetAll(ctx)
//	_ = repo.Delete(ctx, id)
package passwords
