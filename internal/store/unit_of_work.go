package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/lalitkumar100/mediCude-backend/pkg/logger"
)

var (
	errTxActive   = errors.New("transaction already started")
	errTxInactive = errors.New("no active transaction")
)

// UnitOfWork binds the session store and query executor to one transaction.
type UnitOfWork struct {
	db     *gorm.DB
	tx     *gorm.DB
	logger *logger.Logger
}

func (u *UnitOfWork) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// Begin opens the transaction.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return errTxActive
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

// Commit commits the transaction.
func (u *UnitOfWork) Commit() error {
	if u.tx == nil {
		return errTxInactive
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

// Rollback aborts the transaction. It is a no-op once the transaction has ended.
func (u *UnitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Sessions returns the session store bound to this unit of work.
func (u *UnitOfWork) Sessions() *SessionStore {
	return newSessionStore(u.getDB())
}

// Queries returns the query executor bound to this unit of work.
func (u *UnitOfWork) Queries() *QueryExecutor {
	return newQueryExecutor(u.getDB(), u.logger)
}
