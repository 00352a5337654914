package sql

import (
	"context"
	"fmt"

	"roombook/pkg/db"
	apperrors "roombook/pkg/errors"

	"gorm.io/gorm"
)

type txKey struct{}

type gormTransactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(conn *gorm.DB) db.TransactionManager {
	return &gormTransactionManager{db: conn}
}

func (m *gormTransactionManager) ExecuteTransaction(ctx context.Context, fn db.TxFunc) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

// Conn returns the transaction bound to ctx, or fallback when there is none.
func Conn(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return fallback.WithContext(ctx)
}

func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}
