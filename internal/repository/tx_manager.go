package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type txCtxKey struct{}

// TransactionManager runs a unit of work in one transaction carried by the context.
// Repositories pick it up through GetDB.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type transactionManager struct {
	db               *gorm.DB
	statementTimeout time.Duration
}

// NewTransactionManager bounds every statement of a transaction by statementTimeout.
// Zero leaves the server default.
func NewTransactionManager(db *gorm.DB, statementTimeout time.Duration) TransactionManager {
	return &transactionManager{db: db, statementTimeout: statementTimeout}
}

// RunInTx commits when fn returns nil and rolls back otherwise. Nested calls join the outer transaction.
func (t *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.statementTimeout > 0 {
			ms := t.statementTimeout.Milliseconds()
			if err := tx.Exec(fmt.Sprintf("SET LOCAL statement_timeout = %d", ms)).Error; err != nil {
				return fmt.Errorf("set statement timeout: %w", err)
			}
		}
		return fn(context.WithValue(ctx, txCtxKey{}, tx))
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// InTx reports whether ctx carries an open transaction
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txCtxKey{}).(*gorm.DB)
	return ok
}

// GetDB returns the context's transaction when there is one, the pool otherwise
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txCtxKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rootDB.WithContext(ctx)
}
