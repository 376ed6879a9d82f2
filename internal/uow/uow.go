// Package uow groups repository operations into a single atomic transaction.
package uow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/go-blog-api/internal/types"
)

// ErrTransactionInProgress reports a re-entrant ExecuteInTransaction call on
// the same unit of work. This is a caller contract violation, not a business
// failure, and is never converted into a DomainError.
var ErrTransactionInProgress = errors.New("uow: transaction already in progress")

// UnitOfWork exposes repository handles that route through the open
// transaction while one is active, and through the pool otherwise.
type UnitOfWork interface {
	Users() types.UserRepository
	Posts() types.PostRepository

	// ExecuteInTransaction begins a transaction, runs work, commits on a nil
	// return and rolls back otherwise. The transactional connection is
	// released on every exit path.
	ExecuteInTransaction(ctx context.Context, work func(ctx context.Context) error) error
}

// Factory produces a fresh UnitOfWork per handler invocation, so the
// single-transaction invariant below never spans concurrent requests.
type Factory interface {
	New() UnitOfWork
}

// TxBeginner is satisfied by *pgxpool.Pool and by pgxmock pools in tests.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ UnitOfWork = (*PgxUnitOfWork)(nil)
var _ Factory = (*PgxFactory)(nil)

// PgxFactory builds units of work bound to a shared pool and the default
// (pool-bound) repositories.
type PgxFactory struct {
	db     TxBeginner
	users  types.UserRepository
	posts  types.PostRepository
	logger *slog.Logger
}

func NewFactory(db TxBeginner, users types.UserRepository, posts types.PostRepository, logger *slog.Logger) *PgxFactory {
	return &PgxFactory{
		db:     db,
		users:  users,
		posts:  posts,
		logger: logger,
	}
}

func (f *PgxFactory) New() UnitOfWork {
	return &PgxUnitOfWork{
		db:     f.db,
		users:  f.users,
		posts:  f.posts,
		logger: f.logger,
	}
}

// PgxUnitOfWork carries at most one open transaction at a time. The tx field
// has a single writer: the one in-flight ExecuteInTransaction call.
type PgxUnitOfWork struct {
	db     TxBeginner
	users  types.UserRepository
	posts  types.PostRepository
	logger *slog.Logger
	tx     pgx.Tx
}

func (u *PgxUnitOfWork) Users() types.UserRepository {
	if u.tx != nil {
		return u.users.WithTx(u.tx)
	}
	return u.users
}

func (u *PgxUnitOfWork) Posts() types.PostRepository {
	if u.tx != nil {
		return u.posts.WithTx(u.tx)
	}
	return u.posts
}

func (u *PgxUnitOfWork) ExecuteInTransaction(ctx context.Context, work func(ctx context.Context) error) error {
	if u.tx != nil {
		return ErrTransactionInProgress
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("uow: begin transaction: %w", err)
	}
	u.tx = tx
	// The deferred rollback releases the connection on every exit path,
	// including a panic inside work. After a successful commit it returns
	// pgx.ErrTxClosed, which is not an error here.
	defer func() {
		u.tx = nil
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			u.logger.ErrorContext(ctx, "Transaction rollback failed", slog.Any("error", rbErr))
		}
	}()

	if err := work(ctx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("uow: commit transaction: %w", err)
	}
	return nil
}
