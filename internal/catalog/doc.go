// Package catalog holds the fixed set of dashboard queries.
//
// Every query lives in one file next to the row type it scans into and the
// projector that turns that row into its JSON record. The row's dest()
// order is the SELECT order; keep the two in step when editing either.
//
//	Aggregated        totals for the last day
//	ByRegion          per-region totals, highest GMV first
//	ByChannel         per-channel totals, most orders first
//	RecentSales       newest sales, limit clamped to [1, 100]
//	SolutionAdoption  payment/shipping adoption counters and percentages
//	RegionCities      top 10 cities of one region by GMV
//
// Numeric columns that come back NULL are projected as zero. All
// caller-supplied values, including the feed limit, are bound parameters.
package catalog
