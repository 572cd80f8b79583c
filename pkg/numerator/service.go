// Package numerator provides order numbering: timestamped order numbers and
// gapless integer sequences stored in sys_sequences.
package numerator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
)

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict uses UPDATE ... RETURNING for every number.
	// Guarantees sequential numbers without gaps.
	// Slower, suitable for invoices and accounting documents.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory.
	// Much faster, but may produce gaps if application restarts.
	StrategyCached
)

// Options configuration for number generation.
type Options struct {
	// Strategy to use for number generation
	Strategy Strategy
	// RangeSize is the number of IDs to allocate at once in Cached strategy.
	// Default is 50.
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{
		Strategy: StrategyStrict,
	}
}

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierFunc resolves the querier for a call, typically the open session's transaction.
type QuerierFunc func(ctx context.Context) Querier

type cachedRange struct {
	current int64
	max     int64
}

// Service hands out sequence values.
type Service struct {
	querier QuerierFunc
	opts    Options

	// cacheMu protects ranges
	cacheMu sync.Mutex
	ranges  map[string]*cachedRange
}

// New creates a numerator bound to one querier. Use for tests and one-off tools.
func New(querier Querier) *Service {
	return NewWithQuerier(func(context.Context) Querier { return querier }, nil)
}

// NewWithQuerier creates a numerator resolving its querier per call, so strict
// numbers are taken inside the caller's session and roll back with it.
func NewWithQuerier(querier QuerierFunc, opts *Options) *Service {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Service{
		querier: querier,
		opts:    *opts,
		ranges:  make(map[string]*cachedRange),
	}
}

// NextValue returns the next value of the sequence named key.
func (s *Service) NextValue(ctx context.Context, key string) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("numerator service is not initialized")
	}
	switch s.opts.Strategy {
	case StrategyCached:
		return s.getNextCached(ctx, key)
	default:
		return s.getNextStrict(ctx, key)
	}
}

// getNextStrict fetches the next number directly from DB using UPSERT + RETURNING.
func (s *Service) getNextStrict(ctx context.Context, key string) (int64, error) {
	var num int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, key).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("strict next %s: %w", key, err)
	}
	return num, nil
}

// getNextCached fetches next number from memory, refilling from DB if needed.
func (s *Service) getNextCached(ctx context.Context, key string) (int64, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	rng, exists := s.ranges[key]
	if !exists {
		rng = &cachedRange{}
		s.ranges[key] = rng
	}

	if rng.current >= rng.max {
		size := s.opts.RangeSize
		if size <= 0 {
			size = 50
		}

		// current_val is the last value handed out; reserving bumps it by size and
		// the range (old, new] becomes ours.
		var newMax int64
		err := s.querier(ctx).QueryRow(ctx, `
			INSERT INTO sys_sequences (key, current_val)
			VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + $2
			RETURNING current_val
		`, key, size).Scan(&newMax)
		if err != nil {
			return 0, fmt.Errorf("reserve range: %w", err)
		}

		rng.current = newMax - size
		rng.max = newMax
	}

	rng.current++
	return rng.current, nil
}

// SetNextValue sets the current value of a sequence (for migration purposes).
func (s *Service) SetNextValue(ctx context.Context, key string, value int64) error {
	var result int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val
	`, key, value).Scan(&result)

	s.cacheMu.Lock()
	delete(s.ranges, key)
	s.cacheMu.Unlock()

	return err
}

// OrderNumberLayout is the timestamp part of an order number.
const OrderNumberLayout = "20060102150405"

// FormatOrderNumber builds CMD-{posCode}-{YYYYMMDDHHMMSS}.
func FormatOrderNumber(posCode string, t time.Time) string {
	return fmt.Sprintf("CMD-%s-%s", posCode, t.Format(OrderNumberLayout))
}

// ParseOrderNumber splits an order number into its POS code and timestamp.
func ParseOrderNumber(number string) (posCode string, t time.Time, err error) {
	rest, ok := strings.CutPrefix(number, "CMD-")
	i := strings.LastIndexByte(rest, '-')
	if !ok || i <= 0 {
		return "", time.Time{}, fmt.Errorf("malformed order number %q", number)
	}
	t, err = time.Parse(OrderNumberLayout, rest[i+1:])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("malformed order number %q: %w", number, err)
	}
	return rest[:i], t, nil
}

// SequenceKey names the sequence of a POS within a module.
func SequenceKey(module, posCode string) string {
	return strings.ToUpper(module) + "_" + posCode
}

// FormatInt renders a sequence value as a plain reference.
func FormatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
