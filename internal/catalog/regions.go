package catalog

import (
	"context"
	"database/sql"
)

// Warehouse rows carry the region in the state column.
const byRegionSQL = `
SELECT
    state                    AS region,
    COUNT(*)                 AS orders,
    SUM(gmv)                 AS gmv,
    COUNT(DISTINCT store_id) AS stores
FROM gold.sales_aggregated
WHERE sale_date >= ?
GROUP BY state
ORDER BY gmv DESC, region`

// RegionStats is one entry of byRegion.
type RegionStats struct {
	Region *string `json:"region"`
	Orders int64   `json:"orders"`
	GMV    float64 `json:"gmv"`
	Stores int64   `json:"stores"`
}

type regionRow struct {
	region sql.NullString
	orders sql.NullInt64
	gmv    sql.NullFloat64
	stores sql.NullInt64
}

func (r *regionRow) dest() []any {
	return []any{&r.region, &r.orders, &r.gmv, &r.stores}
}

func (r regionRow) project() RegionStats {
	return RegionStats{
		Region: stringOrNil(r.region),
		Orders: intOrZero(r.orders),
		GMV:    floatOrZero(r.gmv),
		Stores: intOrZero(r.stores),
	}
}

// ByRegion returns per-region totals since the given date, highest GMV first.
func ByRegion(ctx context.Context, q Querier, since string) ([]RegionStats, error) {
	out := make([]RegionStats, 0)
	err := each(ctx, q, byRegionSQL, []any{since}, func(scan func(...any) error) error {
		var r regionRow
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

// CityLimit caps the region drill-down.
const CityLimit = 10

const regionCitiesSQL = `
SELECT
    city,
    COUNT(*)                 AS orders,
    SUM(gmv)                 AS gmv,
    COUNT(DISTINCT store_id) AS stores
FROM gold.sales_aggregated
WHERE state = ? AND sale_date >= ?
GROUP BY state, city
ORDER BY gmv DESC, city
LIMIT ?`

// CityStats is one entry of a region drill-down.
type CityStats struct {
	City   *string `json:"city"`
	Orders int64   `json:"orders"`
	GMV    float64 `json:"gmv"`
	Stores int64   `json:"stores"`
}

type cityRow struct {
	city   sql.NullString
	orders sql.NullInt64
	gmv    sql.NullFloat64
	stores sql.NullInt64
}

func (r *cityRow) dest() []any {
	return []any{&r.city, &r.orders, &r.gmv, &r.stores}
}

func (r cityRow) project() CityStats {
	return CityStats{
		City:   stringOrNil(r.city),
		Orders: intOrZero(r.orders),
		GMV:    floatOrZero(r.gmv),
		Stores: intOrZero(r.stores),
	}
}

// RegionCities returns the top cities by GMV for region since the given
// date. The region code is bound as given; callers normalise it first.
func RegionCities(ctx context.Context, q Querier, region, since string) ([]CityStats, error) {
	out := make([]CityStats, 0, CityLimit)
	err := each(ctx, q, regionCitiesSQL, []any{region, since, CityLimit}, func(scan func(...any) error) error {
		var r cityRow
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
