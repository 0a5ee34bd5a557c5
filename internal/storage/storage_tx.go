package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type Tx struct {
	s  *storage
	tx *sqlx.Tx

	actions []txAction
}

type txAction struct {
	action actionTypes
	table  *Table
	obj    interface{}
}

// TxInterface runs writes in one transaction; the cache only sees them after TXEnd commits
type TxInterface interface {
	TXInsert(ctx context.Context, obj interface{}) error
	TXUpdate(ctx context.Context, obj interface{}) error
	TXDelete(ctx context.Context, obj interface{}) error

	// TXEnd commits and then applies the cache actions of every write
	TXEnd(ctx context.Context) error
	// TXRollback is safe to defer; it is a no-op after TXEnd
	TXRollback() error

	// TxSelect is for fetching one row where obj will be the result
	TxSelect(ctx context.Context, obj interface{}, queryName string) error

	// TxSelectAll is for fetching all rows where dest will be the results
	TxSelectAll(ctx context.Context, obj interface{}, dest interface{}, queryName string, opts *SelectOptions) error

	// Tx exposes the underlying transaction for statements outside of the table config
	Tx() *sqlx.Tx
}

func (s *storage) TXBegin(ctx context.Context) (TxInterface, error) {
	tx, err := s.db.writeConn().BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	return &Tx{
		s:       s,
		tx:      tx,
		actions: []txAction{},
	}, nil
}

func (t *Tx) TXInsert(ctx context.Context, obj interface{}) error {
	table, err := t.s.insert(ctx, obj, t.tx)
	if err != nil {
		return err
	}
	t.actions = append(t.actions, txAction{action: actionInsert, table: table, obj: obj})
	return nil
}

func (t *Tx) TXUpdate(ctx context.Context, obj interface{}) error {
	table, err := t.s.update(ctx, obj, t.tx)
	if err != nil {
		return err
	}
	t.actions = append(t.actions, txAction{action: actionUpdate, table: table, obj: obj})
	return nil
}

func (t *Tx) TXDelete(ctx context.Context, obj interface{}) error {
	table, err := t.s.delete(ctx, obj, t.tx)
	if err != nil {
		return err
	}
	t.actions = append(t.actions, txAction{action: actionDelete, table: table, obj: obj})
	return nil
}

func (t *Tx) TxSelect(ctx context.Context, obj interface{}, queryName string) error {
	return t.s.selectOne(ctx, obj, queryName, t.tx)
}

func (t *Tx) TxSelectAll(ctx context.Context, obj interface{}, dest interface{}, queryName string, opts *SelectOptions) error {
	// one connection; no concurrent fetches inside a transaction
	return t.s.selectAll(ctx, obj, dest, queryName, opts, t.tx, true)
}

func (t *Tx) Tx() *sqlx.Tx {
	return t.tx
}

func (t *Tx) TXEnd(ctx context.Context) error {
	if err := t.tx.Commit(); err != nil {
		_ = t.tx.Rollback()
		return err
	}

	var errs []error
	for _, a := range t.actions {
		if err := t.s.actionNonSelect(ctx, a.table, a.obj, a.action); err != nil {
			// the data is committed; a stale key is the lesser problem
			errs = append(errs, err)
		}
	}
	t.actions = nil

	return errors.Join(errs...)
}

func (t *Tx) TXRollback() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
