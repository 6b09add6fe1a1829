package catalog

import (
	"context"
	"database/sql"
)

const solutionsSQL = `
SELECT
    SUM(CASE WHEN uses_nuvempay THEN 1 ELSE 0 END)    AS nuvempay_count,
    SUM(CASE WHEN uses_nuvemenvios THEN 1 ELSE 0 END) AS nuvemenvios_count,
    COUNT(*)                                          AS total
FROM gold.sales_aggregated
WHERE sale_date >= ?`

// Adoption is a counter with its share of all orders.
type Adoption struct {
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Solutions reports payment and shipping product adoption.
type Solutions struct {
	NuvemPay    Adoption `json:"nuvemPay"`
	NuvemEnvios Adoption `json:"nuvemEnvios"`
}

type solutionsRow struct {
	nuvemPay    sql.NullInt64
	nuvemEnvios sql.NullInt64
	total       sql.NullInt64
}

func (r *solutionsRow) dest() []any {
	return []any{&r.nuvemPay, &r.nuvemEnvios, &r.total}
}

func (r solutionsRow) project() Solutions {
	pay, envios, total := intOrZero(r.nuvemPay), intOrZero(r.nuvemEnvios), intOrZero(r.total)
	return Solutions{
		NuvemPay:    Adoption{Count: pay, Percentage: percentage(pay, total)},
		NuvemEnvios: Adoption{Count: envios, Percentage: percentage(envios, total)},
	}
}

// SolutionAdoption returns adoption counters since the given date.
func SolutionAdoption(ctx context.Context, q Querier, since string) (Solutions, error) {
	var out Solutions
	err := each(ctx, q, solutionsSQL, []any{since}, func(scan func(...any) error) error {
		var r solutionsRow
		if err := scan(r.dest()...); err != nil {
			return err
		}
		out = r.project()
		return nil
	})
	if err != nil {
		return Solutions{}, err
	}
	return out, nil
}
