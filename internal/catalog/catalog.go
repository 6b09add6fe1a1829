package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/liveglobe/liveglobe/internal/warehouse"
)

// Limits for the recent sales feed.
const (
	DefaultLimit = 20
	MaxLimit     = 100
	MinLimit     = 1
)

// Querier runs a parameterised statement. *warehouse.Gateway implements it.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Since returns the lower bound of the "last 1 day" window for now, as the
// date string bound into every windowed query.
func Since(now time.Time) string {
	return now.UTC().AddDate(0, 0, -1).Format(time.DateOnly)
}

// ClampLimit turns the raw limit query value into the feed size. Empty or
// non-numeric input yields DefaultLimit; numbers are clamped to
// [MinLimit, MaxLimit].
func ClampLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		// Out-of-range integers still carry a sign worth honouring.
		if errors.Is(err, strconv.ErrRange) {
			if strings.HasPrefix(raw, "-") {
				return MinLimit
			}
			return MaxLimit
		}
		return DefaultLimit
	}
	return clamp(n)
}

func clamp(n int) int {
	switch {
	case n < MinLimit:
		return MinLimit
	case n > MaxLimit:
		return MaxLimit
	default:
		return n
	}
}

// NormalizeRegion trims and uppercases a region code.
func NormalizeRegion(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// each runs query and hands every row's Scan to fn. Rows are always closed;
// scan and iteration failures come back as data source errors.
func each(ctx context.Context, q Querier, query string, args []any, fn func(scan func(dest ...any) error) error) error {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return warehouse.Wrap("query", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows.Scan); err != nil {
			return warehouse.Wrap("scan", err)
		}
	}
	return warehouse.Wrap("scan", rows.Err())
}

func intOrZero(v sql.NullInt64) int64 {
	if !v.Valid {
		return 0
	}
	return v.Int64
}

func floatOrZero(v sql.NullFloat64) float64 {
	if !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) {
		return 0
	}
	return v.Float64
}

func stringOrNil(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// percentage returns count as a share of total with one decimal, ties to
// even. A zero total is treated as 1 so the result is 0 rather than a
// division fault.
func percentage(count, total int64) float64 {
	if total == 0 {
		total = 1
	}
	pct := float64(count) / float64(total) * 100
	return math.RoundToEven(pct*10) / 10
}

// Timestamp scans a nullable warehouse timestamp delivered as time.Time or
// as text, depending on the driver.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.DateOnly,
}

// Scan implements sql.Scanner.
func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = Timestamp{}
		return nil
	case time.Time:
		*t = Timestamp{Time: v, Valid: true}
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("timestamp: unsupported type %T", src)
	}
}

func (t *Timestamp) parse(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			*t = Timestamp{Time: ts, Valid: true}
			return nil
		}
	}
	return fmt.Errorf("timestamp: cannot parse %q", s)
}

// ISO returns the RFC 3339 form in UTC, or nil when the value is NULL.
func (t Timestamp) ISO() *string {
	if !t.Valid {
		return nil
	}
	s := t.Time.UTC().Format(time.RFC3339Nano)
	return &s
}
