package catalog

import (
	"context"
	"database/sql"
)

const recentSalesSQL = `
SELECT
    sale_id,
    store_name,
    city,
    state,
    channel,
    sale_value,
    product_segment,
    uses_nuvempay,
    uses_nuvemenvios,
    is_first_sale,
    sale_timestamp
FROM gold.recent_sales
ORDER BY sale_timestamp DESC NULLS LAST, sale_id
LIMIT ?`

// Sale is one entry of the live sales feed.
type Sale struct {
	ID              *string `json:"id"`
	StoreName       *string `json:"storeName"`
	City            *string `json:"city"`
	Region          *string `json:"region"`
	Channel         *string `json:"channel"`
	Value           float64 `json:"value"`
	Segment         *string `json:"segment"`
	UsesNuvemPay    bool    `json:"usesNuvemPay"`
	UsesNuvemEnvios bool    `json:"usesNuvemEnvios"`
	IsFirstSale     bool    `json:"isFirstSale"`
	Timestamp       *string `json:"timestamp"`
}

type saleRow struct {
	id          sql.NullString
	storeName   sql.NullString
	city        sql.NullString
	region      sql.NullString
	channel     sql.NullString
	value       sql.NullFloat64
	segment     sql.NullString
	nuvemPay    sql.NullBool
	nuvemEnvios sql.NullBool
	firstSale   sql.NullBool
	at          Timestamp
}

func (r *saleRow) dest() []any {
	return []any{
		&r.id, &r.storeName, &r.city, &r.region, &r.channel, &r.value,
		&r.segment, &r.nuvemPay, &r.nuvemEnvios, &r.firstSale, &r.at,
	}
}

func (r saleRow) project() Sale {
	return Sale{
		ID:              stringOrNil(r.id),
		StoreName:       stringOrNil(r.storeName),
		City:            stringOrNil(r.city),
		Region:          stringOrNil(r.region),
		Channel:         stringOrNil(r.channel),
		Value:           floatOrZero(r.value),
		Segment:         stringOrNil(r.segment),
		UsesNuvemPay:    r.nuvemPay.Valid && r.nuvemPay.Bool,
		UsesNuvemEnvios: r.nuvemEnvios.Valid && r.nuvemEnvios.Bool,
		IsFirstSale:     r.firstSale.Valid && r.firstSale.Bool,
		Timestamp:       r.at.ISO(),
	}
}

// RecentSales returns the newest sales, at most limit of them. limit is
// clamped to [MinLimit, MaxLimit] and bound as a parameter.
func RecentSales(ctx context.Context, q Querier, limit int) ([]Sale, error) {
	limit = clamp(limit)
	out := make([]Sale, 0, limit)
	err := each(ctx, q, recentSalesSQL, []any{limit}, func(scan func(...any) error) error {
		var r saleRow
		if err := scan(r.dest()...); err != nil {
			return err
		}
		out = append(out, r.project())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
