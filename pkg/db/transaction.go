package db

import "context"

// TxFunc runs inside a store transaction. The context it receives carries the
// transaction and must be used for every store call made by the function.
type TxFunc func(ctx context.Context) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TxFunc) error
}
