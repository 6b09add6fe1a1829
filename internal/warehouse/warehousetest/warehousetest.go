// Package warehousetest provides an in-memory sqlite warehouse with the gold
// schema attached, for tests of packages that sit on top of the gateway.
package warehousetest

import (
	"fmt"
	"testing"
	"time"

	"github.com/liveglobe/liveglobe/internal/config"
	"github.com/liveglobe/liveglobe/internal/warehouse"
)

// Schema creates the gold tables the catalog reads from.
var Schema = []string{
	`ATTACH DATABASE ':memory:' AS gold`,
	`CREATE TABLE gold.sales_aggregated (
		sale_date        DATE,
		state            TEXT,
		city             TEXT,
		channel          TEXT,
		store_id         TEXT,
		gmv              REAL,
		ticket_value     REAL,
		uses_nuvempay    BOOLEAN,
		uses_nuvemenvios BOOLEAN
	)`,
	`CREATE TABLE gold.recent_sales (
		sale_id          TEXT,
		store_name       TEXT,
		city             TEXT,
		state            TEXT,
		channel          TEXT,
		sale_value       REAL,
		product_segment  TEXT,
		uses_nuvempay    BOOLEAN,
		uses_nuvemenvios BOOLEAN,
		is_first_sale    BOOLEAN,
		sale_timestamp   TIMESTAMP
	)`,
}

// Config returns a sqlite warehouse config whose init statements create the
// schema and then run seed.
func Config(seed ...string) config.WarehouseConfig {
	stmts := make([]string, 0, len(Schema)+len(seed))
	stmts = append(stmts, Schema...)
	stmts = append(stmts, seed...)
	return config.WarehouseConfig{
		Driver: "sqlite",
		DSN:    ":memory:",
		Init:   stmts,
	}
}

// New returns a gateway over a seeded in-memory warehouse, closed on cleanup.
func New(t testing.TB, seed ...string) *warehouse.Gateway {
	t.Helper()
	g, err := warehouse.New(Config(seed...))
	if err != nil {
		t.Fatalf("warehousetest: new gateway: %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })
	return g
}

// Day formats the UTC date daysAgo days before now the way sale_date is stored.
func Day(now time.Time, daysAgo int) string {
	return now.UTC().AddDate(0, 0, -daysAgo).Format(time.DateOnly)
}

// Sale is one gold.sales_aggregated row.
type Sale struct {
	Date        string
	State       string
	City        string
	Channel     string
	StoreID     string
	GMV         float64
	Ticket      float64
	NuvemPay    bool
	NuvemEnvios bool
}

// Insert renders s as an INSERT statement.
func (s Sale) Insert() string {
	return fmt.Sprintf(
		`INSERT INTO gold.sales_aggregated VALUES ('%s','%s','%s','%s','%s',%g,%g,%d,%d)`,
		s.Date, s.State, s.City, s.Channel, s.StoreID, s.GMV, s.Ticket, b2i(s.NuvemPay), b2i(s.NuvemEnvios),
	)
}

// RecentSale is one gold.recent_sales row. An empty Timestamp is stored as NULL.
type RecentSale struct {
	ID          string
	StoreName   string
	City        string
	State       string
	Channel     string
	Value       float64
	Segment     string
	NuvemPay    bool
	NuvemEnvios bool
	FirstSale   bool
	Timestamp   string
}

// Insert renders r as an INSERT statement.
func (r RecentSale) Insert() string {
	ts := "NULL"
	if r.Timestamp != "" {
		ts = "'" + r.Timestamp + "'"
	}
	return fmt.Sprintf(
		`INSERT INTO gold.recent_sales VALUES ('%s','%s','%s','%s','%s',%g,'%s',%d,%d,%d,%s)`,
		r.ID, r.StoreName, r.City, r.State, r.Channel, r.Value, r.Segment,
		b2i(r.NuvemPay), b2i(r.NuvemEnvios), b2i(r.FirstSale), ts,
	)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
