// Package persistence реализует репозитории жизненного цикла поверх PostgreSQL.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ignatzorin/hiring-lifecycle/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// querier - общее подмножество *sqlx.DB и *sqlx.Tx.
type querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type txKey struct{}

// TxManager открывает транзакцию и кладёт её в контекст; репозитории берут её через conn.
type TxManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}
	tx, err := m.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось начать транзакцию")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось зафиксировать транзакцию")
	}
	return nil
}

func conn(ctx context.Context, db *sqlx.DB) querier {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

// dbError переводит ошибку драйвера в ошибку приложения.
func dbError(err error, notFound error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return apperror.StateConflict("запись уже существует: %s", pqErr.Constraint)
		case "40001", "40P01":
			return apperror.ErrConcurrentUpdate
		}
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, fmt.Sprintf("ошибка базы данных: %s", op))
}

// versioned выполняет UPDATE с проверкой версии и увеличивает version в сущности.
// Если строка есть, но версия не совпала, возвращается ErrConcurrentUpdate.
func versioned(ctx context.Context, q querier, table string, id any, version *int, notFound error, query string, args ...any) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return dbError(err, notFound, "update "+table)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return dbError(err, notFound, "update "+table)
	}
	if rows == 0 {
		var exists bool
		if err := q.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = $1)`, id); err != nil {
			return dbError(err, notFound, "update "+table)
		}
		if !exists {
			return notFound
		}
		return apperror.ErrConcurrentUpdate
	}
	*version++
	return nil
}

func statusArray[S ~string](statuses []S) interface{} {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return pq.Array(out)
}
