package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorlot-ads/internal/core/port"
)

// stubTx implements pgx.Tx far enough to drive WithTx's commit and
// rollback paths without a live database.
type stubTx struct {
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *stubTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *stubTx) Commit(ctx context.Context) error {
	t.committed = true
	return t.commitErr
}
func (t *stubTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}
func (t *stubTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *stubTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *stubTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *stubTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *stubTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *stubTx) Conn() *pgx.Conn                                               { return nil }

type stubBeginner struct {
	tx       *stubTx
	beginErr error
}

func (b *stubBeginner) BeginTx(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	if b.beginErr != nil {
		return nil, b.beginErr
	}
	return b.tx, nil
}
func (b *stubBeginner) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (b *stubBeginner) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (b *stubBeginner) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func TestWithTxPropagatesCommitError(t *testing.T) {
	// Under serializable isolation a conflict surfaces at COMMIT; the
	// caller must see it, not a false success.
	commitErr := errors.New("serialization failure")
	tx := &stubTx{commitErr: commitErr}
	repo := &AdRepository{pool: &stubBeginner{tx: tx}, q: &stubBeginner{tx: tx}}

	err := repo.WithTx(context.Background(), func(ctx context.Context, _ port.AdRepository) error {
		return nil
	})
	require.ErrorIs(t, err, commitErr)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	tx := &stubTx{}
	repo := &AdRepository{pool: &stubBeginner{tx: tx}, q: &stubBeginner{tx: tx}}

	err := repo.WithTx(context.Background(), func(ctx context.Context, _ port.AdRepository) error {
		return nil
	})
	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	boom := errors.New("boom")
	tx := &stubTx{}
	repo := &AdRepository{pool: &stubBeginner{tx: tx}, q: &stubBeginner{tx: tx}}

	err := repo.WithTx(context.Background(), func(ctx context.Context, _ port.AdRepository) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestWithTxBeginError(t *testing.T) {
	beginErr := errors.New("no connection")
	repo := &AdRepository{pool: &stubBeginner{beginErr: beginErr}, q: &stubBeginner{}}

	err := repo.WithTx(context.Background(), func(ctx context.Context, _ port.AdRepository) error {
		t.Fatal("fn must not run when the transaction cannot start")
		return nil
	})
	assert.ErrorIs(t, err, beginErr)
}

func TestWithTxNestedJoinsAmbient(t *testing.T) {
	tx := &stubTx{}
	repo := &AdRepository{pool: &stubBeginner{tx: tx}, q: &stubBeginner{tx: tx}}

	err := repo.WithTx(context.Background(), func(ctx context.Context, outer port.AdRepository) error {
		return outer.WithTx(ctx, func(ctx context.Context, _ port.AdRepository) error {
			return nil
		})
	})
	require.NoError(t, err)
	assert.True(t, tx.committed, "only the outer call commits")
}
