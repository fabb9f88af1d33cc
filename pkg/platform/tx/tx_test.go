package tx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithTx(t *testing.T) {
	ctx := context.Background()

	_, ok := From(ctx)
	assert.False(t, ok)

	assert.Equal(t, ctx, WithTx(ctx, nil), "nil tx leaves context untouched")

	sqlTx := &sql.Tx{}
	got, ok := From(WithTx(ctx, sqlTx))
	assert.True(t, ok)
	assert.Same(t, sqlTx, got)
}

func TestRun_JoinsEnclosingTransaction(t *testing.T) {
	outer := &sql.Tx{}
	ctx := WithTx(context.Background(), outer)

	var joined *sql.Tx
	err := Run(ctx, nil, func(_ context.Context, tx *sql.Tx) error {
		joined = tx
		return nil
	})
	assert.NoError(t, err)
	assert.Same(t, outer, joined)
}

func TestRun_CallbackErrorIsReturnedUnchanged(t *testing.T) {
	boom := errors.New("boom")
	ctx := WithTx(context.Background(), &sql.Tx{})

	err := Run(ctx, nil, func(context.Context, *sql.Tx) error { return boom })
	assert.Same(t, boom, err)

	var opErr *OpError
	assert.False(t, errors.As(err, &opErr))
}

func TestOpError(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(&OpError{Op: "commit", Err: cause})

	assert.Equal(t, "commit: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
}
