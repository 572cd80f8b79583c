package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ayanna/internal/core/apperror"
)

const idempotencyTable = "sys_idempotency"

// A pending claim older than this belongs to a request that died; a retry takes it over.
const staleClaimAfter = time.Minute

// KeyState is the lifecycle state of an idempotency key.
type KeyState string

const (
	KeyPending KeyState = "pending"
	KeyDone    KeyState = "success"
	KeyFailed  KeyState = "failed"
)

// Claim identifies one request a till may retry: the key it sent, the acting user,
// the operation ("cart.finalize POST /api/v1/carts/shop/<id>/finalize") and the
// SHA-256 of the body.
type Claim struct {
	Key         string
	UserID      string
	Operation   string
	RequestHash string
}

// StoredResponse is the first response given under a key, replayed to retries.
type StoredResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

type keyRow struct {
	Key         string    `db:"idempotency_key"`
	UserID      string    `db:"user_id"`
	Operation   string    `db:"operation"`
	State       KeyState  `db:"status"`
	RequestHash string    `db:"request_hash"`
	Response    []byte    `db:"response"`
	Status      int       `db:"response_status"`
	ContentType string    `db:"response_content_type"`
	UpdatedAt   time.Time `db:"updated_at"`
	Inserted    bool      `db:"inserted"`
}

func (r keyRow) stored() *StoredResponse {
	out := &StoredResponse{Status: r.Status, ContentType: r.ContentType, Body: r.Response}
	if out.Status == 0 {
		out.Status = http.StatusOK
	}
	if out.ContentType == "" {
		out.ContentType = "application/json"
	}
	return out
}

// IdempotencyStore keeps the keys of cart operations (creation, line and discount
// edits, finalization, payments, cancellation), purchase receipts and stock
// movements, so a till retrying after a dropped connection never finalizes or
// takes a payment twice. Keys live outside the operation's session.
type IdempotencyStore struct {
	txm     *TxManager
	ttl     time.Duration
	builder squirrel.StatementBuilderType
}

// NewIdempotencyStore creates an idempotency store whose keys expire after ttl.
func NewIdempotencyStore(txm *TxManager, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		txm:     txm,
		ttl:     ttl,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Claim registers c.Key for the current request. It returns
//   - (nil, nil) when the caller owns the key and must run the operation,
//   - (response, nil) when the operation already ran and its response is replayed,
//   - IdempotencyConflict while another request holds the key,
//   - IdempotencyMismatch when the key was sent for another user, operation or body.
func (s *IdempotencyStore) Claim(ctx context.Context, c Claim) (*StoredResponse, error) {
	now := time.Now().UTC()

	// xmax is 0 only on a freshly inserted row.
	sql, args, err := s.builder.Insert(idempotencyTable).
		Columns("idempotency_key", "user_id", "operation", "status", "request_hash",
			"created_at", "updated_at", "expires_at").
		Values(c.Key, c.UserID, c.Operation, KeyPending, c.RequestHash, now, now, now.Add(s.ttl)).
		Suffix(`ON CONFLICT (idempotency_key) DO UPDATE
			SET expires_at = GREATEST(` + idempotencyTable + `.expires_at, EXCLUDED.expires_at)
			RETURNING idempotency_key, user_id, operation, status, request_hash, response,
				response_status, response_content_type, updated_at, (xmax = 0) AS inserted`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	var row keyRow
	if err := pgxscan.Get(ctx, s.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		return nil, fmt.Errorf("claim idempotency key: %w", err)
	}
	if row.Inserted {
		return nil, nil
	}

	if row.UserID != c.UserID || row.Operation != c.Operation || row.RequestHash != c.RequestHash {
		return nil, apperror.NewIdempotencyMismatch(c.Key).WithDetail("operation", row.Operation)
	}
	if row.State != KeyPending {
		return row.stored(), nil
	}
	if now.Sub(row.UpdatedAt) < staleClaimAfter {
		return nil, apperror.NewIdempotencyConflict(c.Key)
	}

	// Take the stale claim over unless a concurrent retry got there first.
	sql, args, err = s.builder.Update(idempotencyTable).
		Set("updated_at", now).
		Where(squirrel.Eq{"idempotency_key": c.Key, "status": KeyPending, "updated_at": row.UpdatedAt}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}
	tag, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("take over idempotency key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.NewIdempotencyConflict(c.Key)
	}
	return nil, nil
}

// Finish stores the response given under key. Error responses are kept too and
// replay the same way.
func (s *IdempotencyStore) Finish(ctx context.Context, key string, status int, contentType string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	state := KeyDone
	if status >= http.StatusBadRequest {
		state = KeyFailed
	}

	sql, args, err := s.builder.Update(idempotencyTable).
		SetMap(map[string]any{
			"status":                state,
			"response":              raw,
			"response_status":       status,
			"response_content_type": contentType,
			"updated_at":            time.Now().UTC(),
		}).
		Where(squirrel.Eq{"idempotency_key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("finish idempotency key %s: %w", key, err)
	}
	return nil
}

// Release drops a pending key so the next retry runs the operation again. Used when
// the operation failed on the server and its session rolled back.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	sql, args, err := s.builder.Delete(idempotencyTable).
		Where(squirrel.Eq{"idempotency_key": key, "status": KeyPending}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("release idempotency key %s: %w", key, err)
	}
	return nil
}

// CleanupExpired deletes keys past their expiry.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	sql, args, err := s.builder.Delete(idempotencyTable).
		Where(squirrel.Lt{"expires_at": time.Now().UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	tag, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expired idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}
