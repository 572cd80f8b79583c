package postgres_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ayanna/internal/core/apperror"
	"ayanna/internal/core/id"
	"ayanna/internal/infrastructure/storage/postgres"
	"ayanna/internal/infrastructure/storage/postgres/pgtest"
)

func finalizeClaim() postgres.Claim {
	cartID := id.New().String()
	return postgres.Claim{
		Key:         "till-" + id.New().String(),
		UserID:      id.New().String(),
		Operation:   "cart.finalize POST /api/v1/carts/shop/" + cartID + "/finalize",
		RequestHash: "3f1a",
	}
}

func TestIdempotencyStore_FinalizeReplays(t *testing.T) {
	_, txm := pgtest.Open(t)
	ctx := context.Background()
	store := postgres.NewIdempotencyStore(txm, time.Hour)
	claim := finalizeClaim()

	replay, err := store.Claim(ctx, claim)
	require.NoError(t, err)
	assert.Nil(t, replay)

	// The first request is still running.
	_, err = store.Claim(ctx, claim)
	assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency), "got %v", err)

	require.NoError(t, store.Finish(ctx, claim.Key, http.StatusOK, "application/json",
		map[string]string{"number": "CMD-POS_2-1"}))

	replay, err = store.Claim(ctx, claim)
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, http.StatusOK, replay.Status)
	assert.Equal(t, "application/json", replay.ContentType)
	assert.JSONEq(t, `{"number":"CMD-POS_2-1"}`, string(replay.Body))

	// Same key, another cart.
	other := claim
	other.Operation = finalizeClaim().Operation
	_, err = store.Claim(ctx, other)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, "Idempotency key mismatch", appErr.Message)
	assert.Equal(t, claim.Operation, appErr.Details["operation"])
}

func TestIdempotencyStore_ReleaseLetsRetryRun(t *testing.T) {
	_, txm := pgtest.Open(t)
	ctx := context.Background()
	store := postgres.NewIdempotencyStore(txm, time.Hour)
	claim := finalizeClaim()

	_, err := store.Claim(ctx, claim)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, claim.Key))

	replay, err := store.Claim(ctx, claim)
	require.NoError(t, err)
	assert.Nil(t, replay)

	// A finished key is not released.
	require.NoError(t, store.Finish(ctx, claim.Key, http.StatusUnprocessableEntity, "application/json",
		map[string]string{"code": "INSUFFICIENT_STOCK"}))
	require.NoError(t, store.Release(ctx, claim.Key))

	replay, err = store.Claim(ctx, claim)
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, http.StatusUnprocessableEntity, replay.Status)
}

func TestIdempotencyStore_CleanupExpired(t *testing.T) {
	_, txm := pgtest.Open(t)
	ctx := context.Background()
	expired := postgres.NewIdempotencyStore(txm, -time.Minute)
	claim := finalizeClaim()

	_, err := expired.Claim(ctx, claim)
	require.NoError(t, err)

	n, err := expired.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	replay, err := expired.Claim(ctx, claim)
	require.NoError(t, err)
	assert.Nil(t, replay, "an expired key is claimed afresh")
}
