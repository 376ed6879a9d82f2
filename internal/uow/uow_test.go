package uow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-blog-api/internal/types"
)

// stubUserRepo records which transaction it was bound to.
type stubUserRepo struct {
	types.UserRepository
	tx pgx.Tx
}

func (s *stubUserRepo) WithTx(tx pgx.Tx) types.UserRepository {
	return &stubUserRepo{tx: tx}
}

type stubPostRepo struct {
	types.PostRepository
	tx pgx.Tx
}

func (s *stubPostRepo) WithTx(tx pgx.Tx) types.PostRepository {
	return &stubPostRepo{tx: tx}
}

func newTestFactory(t *testing.T) (*PgxFactory, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewFactory(mockPool, &stubUserRepo{}, &stubPostRepo{}, logger), mockPool
}

func TestExecuteInTransactionCommits(t *testing.T) {
	factory, mockPool := newTestFactory(t)
	mockPool.ExpectBegin()
	mockPool.ExpectCommit()

	u := factory.New()

	var inTx types.UserRepository
	err := u.ExecuteInTransaction(context.Background(), func(ctx context.Context) error {
		inTx = u.Users()
		return nil
	})
	require.NoError(t, err)

	// Inside the transaction the repository is rebound to the tx.
	bound, ok := inTx.(*stubUserRepo)
	require.True(t, ok)
	assert.NotNil(t, bound.tx)

	// Afterwards the unit of work falls back to the pool-bound repository.
	after, ok := u.Users().(*stubUserRepo)
	require.True(t, ok)
	assert.Nil(t, after.tx)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestExecuteInTransactionRollsBackOnError(t *testing.T) {
	factory, mockPool := newTestFactory(t)
	mockPool.ExpectBegin()
	mockPool.ExpectRollback()

	u := factory.New()

	boom := errors.New("work failed")
	err := u.ExecuteInTransaction(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom, "the work error comes back unchanged")
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestExecuteInTransactionRejectsReentrancy(t *testing.T) {
	factory, mockPool := newTestFactory(t)
	mockPool.ExpectBegin()
	mockPool.ExpectRollback()

	u := factory.New()

	err := u.ExecuteInTransaction(context.Background(), func(ctx context.Context) error {
		return u.ExecuteInTransaction(ctx, func(ctx context.Context) error {
			t.Fatal("nested work must not run")
			return nil
		})
	})
	assert.ErrorIs(t, err, ErrTransactionInProgress)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestExecuteInTransactionReleasesOnPanic(t *testing.T) {
	factory, mockPool := newTestFactory(t)
	mockPool.ExpectBegin()
	mockPool.ExpectRollback()

	u := factory.New()

	require.Panics(t, func() {
		_ = u.ExecuteInTransaction(context.Background(), func(ctx context.Context) error {
			panic("handler blew up")
		})
	})

	// The transaction was rolled back and the unit of work is idle again.
	after, ok := u.Users().(*stubUserRepo)
	require.True(t, ok)
	assert.Nil(t, after.tx)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestExecuteInTransactionBeginFailure(t *testing.T) {
	factory, mockPool := newTestFactory(t)
	beginErr := errors.New("pool exhausted")
	mockPool.ExpectBegin().WillReturnError(beginErr)

	u := factory.New()

	err := u.ExecuteInTransaction(context.Background(), func(ctx context.Context) error {
		t.Fatal("work must not run when begin fails")
		return nil
	})
	assert.ErrorIs(t, err, beginErr)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestExecuteInTransactionCommitFailure(t *testing.T) {
	factory, mockPool := newTestFactory(t)
	commitErr := errors.New("connection reset")
	mockPool.ExpectBegin()
	mockPool.ExpectCommit().WillReturnError(commitErr)

	u := factory.New()

	err := u.ExecuteInTransaction(context.Background(), func(ctx context.Context) error {
		return nil
	})
	assert.ErrorIs(t, err, commitErr)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestFactoryProducesIndependentUnits(t *testing.T) {
	factory, mockPool := newTestFactory(t)
	mockPool.ExpectBegin()
	mockPool.ExpectCommit()

	u1 := factory.New()
	u2 := factory.New()

	err := u1.ExecuteInTransaction(context.Background(), func(ctx context.Context) error {
		// A transaction on one unit of work never leaks into another.
		other, ok := u2.Users().(*stubUserRepo)
		require.True(t, ok)
		assert.Nil(t, other.tx)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
