package catalog

import (
	"context"
	"database/sql"
)

const totalsSQL = `
SELECT
    COUNT(*)                 AS total_orders,
    SUM(gmv)                 AS total_gmv,
    COUNT(DISTINCT store_id) AS total_stores,
    AVG(ticket_value)        AS avg_ticket
FROM gold.sales_aggregated
WHERE sale_date >= ?`

// Totals is the aggregated block of the stats payload.
type Totals struct {
	TotalOrders int64   `json:"totalOrders"`
	TotalGMV    float64 `json:"totalGMV"`
	TotalStores int64   `json:"totalStores"`
	AvgTicket   float64 `json:"avgTicket"`
}

// totalsRow mirrors totalsSQL column for column.
type totalsRow struct {
	orders    sql.NullInt64
	gmv       sql.NullFloat64
	stores    sql.NullInt64
	avgTicket sql.NullFloat64
}

func (r *totalsRow) dest() []any {
	return []any{&r.orders, &r.gmv, &r.stores, &r.avgTicket}
}

func (r totalsRow) project() Totals {
	return Totals{
		TotalOrders: intOrZero(r.orders),
		TotalGMV:    floatOrZero(r.gmv),
		TotalStores: intOrZero(r.stores),
		AvgTicket:   floatOrZero(r.avgTicket),
	}
}

// Aggregated returns order, GMV, store and ticket totals since the given
// date. No row yields all zeros.
func Aggregated(ctx context.Context, q Querier, since string) (Totals, error) {
	var out Totals
	err := each(ctx, q, totalsSQL, []any{since}, func(scan func(...any) error) error {
		var r totalsRow
		if err := scan(r.dest()...); err != nil {
			return err
		}
		out = r.project()
		return nil
	})
	if err != nil {
		return Totals{}, err
	}
	return out, nil
}
