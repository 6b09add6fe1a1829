package catalog

import (
	"context"
	"database/sql"
)

const byChannelSQL = `
SELECT
    channel,
    COUNT(*) AS orders,
    SUM(gmv) AS gmv
FROM gold.sales_aggregated
WHERE sale_date >= ?
GROUP BY channel
ORDER BY orders DESC, channel`

// ChannelStats is one entry of byChannel.
type ChannelStats struct {
	Channel *string `json:"channel"`
	Orders  int64   `json:"orders"`
	GMV     float64 `json:"gmv"`
}

type channelRow struct {
	channel sql.NullString
	orders  sql.NullInt64
	gmv     sql.NullFloat64
}

func (r *channelRow) dest() []any {
	return []any{&r.channel, &r.orders, &r.gmv}
}

func (r channelRow) project() ChannelStats {
	return ChannelStats{
		Channel: stringOrNil(r.channel),
		Orders:  intOrZero(r.orders),
		GMV:     floatOrZero(r.gmv),
	}
}

// ByChannel returns per-channel totals since the given date, most orders first.
func ByChannel(ctx context.Context, q Querier, since string) ([]ChannelStats, error) {
	out := make([]ChannelStats, 0)
	err := each(ctx, q, byChannelSQL, []any{since}, func(scan func(...any) error) error {
		var r channelRow
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
