package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return r.withTxOpts(ctx, nil, fn)
}

// WithSerializableTx executes fn in a serializable transaction. The
// assignment transition path uses this together with FOR UPDATE row
// locks so concurrent transitions on the same position cannot both
// commit.
func (r *BaseRepository) WithSerializableTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return r.withTxOpts(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, fn)
}

func (r *BaseRepository) withTxOpts(ctx context.Context, opts *sql.TxOptions, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
