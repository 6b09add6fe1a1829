package catalog

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/liveglobe/liveglobe/internal/warehouse"
	"github.com/liveglobe/liveglobe/internal/warehouse/warehousetest"
)

// --- helpers ----------------------------------------------------------------

type failingQuerier struct{ err error }

func (f failingQuerier) Query(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, f.err
}

func seedSales(now time.Time) []string {
	today := warehousetest.Day(now, 0)
	yesterday := warehousetest.Day(now, 1)
	old := warehousetest.Day(now, 5)
	rows := []warehousetest.Sale{
		{Date: today, State: "SP", City: "São Paulo", Channel: "online", StoreID: "s1", GMV: 100, Ticket: 100, NuvemPay: true, NuvemEnvios: true},
		{Date: today, State: "SP", City: "São Paulo", Channel: "online", StoreID: "s2", GMV: 50, Ticket: 50, NuvemPay: true},
		{Date: yesterday, State: "SP", City: "Campinas", Channel: "pos", StoreID: "s1", GMV: 30, Ticket: 30},
		{Date: today, State: "RJ", City: "Niterói", Channel: "chat", StoreID: "s3", GMV: 20, Ticket: 20, NuvemEnvios: true},
		// Outside the one-day window.
		{Date: old, State: "MG", City: "Belo Horizonte", Channel: "online", StoreID: "s9", GMV: 999, Ticket: 999, NuvemPay: true},
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Insert())
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}

// --- limits and codes -------------------------------------------------------

func TestClampLimit(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 20},
		{"20", 20},
		{"1", 1},
		{"100", 100},
		{"500", 100},
		{"0", 1},
		{"-5", 1},
		{"abc", 20},
		{"12abc", 20},
		{" 42 ", 42},
		{"99999999999999999999", 100},
		{"-99999999999999999999", 1},
	}
	for _, tt := range tests {
		if got := ClampLimit(tt.raw); got != tt.want {
			t.Errorf("ClampLimit(%q): got %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeRegion(t *testing.T) {
	if got := NormalizeRegion(" xy "); got != "XY" {
		t.Errorf("NormalizeRegion: got %q, want XY", got)
	}
}

func TestSince(t *testing.T) {
	// 22:00 at -03:00 is already 2026-03-02 in UTC.
	now := time.Date(2026, 3, 1, 22, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	if got := Since(now); got != "2026-03-01" {
		t.Errorf("Since: got %q, want 2026-03-01", got)
	}
}

// --- projectors -------------------------------------------------------------

func TestTotalsRow_AllNullsProjectToZero(t *testing.T) {
	got := totalsRow{}.project()
	if got != (Totals{}) {
		t.Errorf("project: got %+v, want zero Totals", got)
	}
}

func TestSolutionsRow_ZeroTotal(t *testing.T) {
	got := solutionsRow{}.project()
	if got.NuvemPay.Percentage != 0 || got.NuvemEnvios.Percentage != 0 {
		t.Errorf("percentages: got %+v, want zeros", got)
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		count, total int64
		want         float64
	}{
		{0, 0, 0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{3, 3, 100},
		{1, 8, 12.5},
		{1, 400, 0.2},
		{3, 400, 0.8},
	}
	for _, tt := range tests {
		if got := percentage(tt.count, tt.total); got != tt.want {
			t.Errorf("percentage(%d, %d): got %v, want %v", tt.count, tt.total, got, tt.want)
		}
	}
}

func TestSaleRow_NullsAndFlags(t *testing.T) {
	r := saleRow{
		id:       sql.NullString{String: "42", Valid: true},
		nuvemPay: sql.NullBool{Bool: true, Valid: true},
	}
	got := r.project()
	if deref(got.ID) != "42" {
		t.Errorf("id: got %s", deref(got.ID))
	}
	if got.Value != 0 {
		t.Errorf("value: got %v, want 0", got.Value)
	}
	if !got.UsesNuvemPay || got.UsesNuvemEnvios || got.IsFirstSale {
		t.Errorf("flags: got %+v", got)
	}
	if got.Timestamp != nil {
		t.Errorf("timestamp: got %s, want nil", deref(got.Timestamp))
	}
}

func TestTimestamp_Scan(t *testing.T) {
	want := time.Date(2026, 10, 19, 13, 4, 5, 0, time.UTC)
	for _, src := range []any{
		want,
		"2026-10-19T13:04:05Z",
		"2026-10-19 10:04:05-03:00",
		[]byte("2026-10-19 13:04:05"),
	} {
		var ts Timestamp
		if err := ts.Scan(src); err != nil {
			t.Fatalf("Scan(%v): %v", src, err)
		}
		if !ts.Valid || !ts.Time.Equal(want) {
			t.Errorf("Scan(%v): got %v valid=%v", src, ts.Time, ts.Valid)
		}
		if deref(ts.ISO()) != "2026-10-19T13:04:05Z" {
			t.Errorf("ISO(%v): got %s", src, deref(ts.ISO()))
		}
	}

	var ts Timestamp
	if err := ts.Scan(nil); err != nil || ts.Valid || ts.ISO() != nil {
		t.Errorf("Scan(nil): err=%v valid=%v", err, ts.Valid)
	}
	if err := ts.Scan(3.14); err == nil {
		t.Error("Scan(float): expected error")
	}
	if err := ts.Scan("yesterday"); err == nil {
		t.Error("Scan(garbage): expected error")
	}
}

// --- queries against sqlite -------------------------------------------------

func TestAggregated(t *testing.T) {
	now := time.Now()
	g := warehousetest.New(t, seedSales(now)...)

	got, err := Aggregated(context.Background(), g, Since(now))
	if err != nil {
		t.Fatalf("Aggregated: %v", err)
	}
	want := Totals{TotalOrders: 4, TotalGMV: 200, TotalStores: 3, AvgTicket: 50}
	if got != want {
		t.Errorf("Aggregated: got %+v, want %+v", got, want)
	}
}

func TestAggregated_EmptyWindowIsZero(t *testing.T) {
	g := warehousetest.New(t)
	got, err := Aggregated(context.Background(), g, Since(time.Now()))
	if err != nil {
		t.Fatalf("Aggregated: %v", err)
	}
	if got != (Totals{}) {
		t.Errorf("Aggregated: got %+v, want zeros", got)
	}
}

func TestByRegion(t *testing.T) {
	now := time.Now()
	g := warehousetest.New(t, seedSales(now)...)

	got, err := ByRegion(context.Background(), g, Since(now))
	if err != nil {
		t.Fatalf("ByRegion: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ByRegion: got %d rows, want 2", len(got))
	}
	if deref(got[0].Region) != "SP" || got[0].Orders != 3 || got[0].GMV != 180 || got[0].Stores != 2 {
		t.Errorf("first: got %+v (%s)", got[0], deref(got[0].Region))
	}
	if deref(got[1].Region) != "RJ" || got[1].GMV != 20 {
		t.Errorf("second: got %+v (%s)", got[1], deref(got[1].Region))
	}
}

func TestByChannel(t *testing.T) {
	now := time.Now()
	g := warehousetest.New(t, seedSales(now)...)

	got, err := ByChannel(context.Background(), g, Since(now))
	if err != nil {
		t.Fatalf("ByChannel: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ByChannel: got %d rows, want 3", len(got))
	}
	if deref(got[0].Channel) != "online" || got[0].Orders != 2 || got[0].GMV != 150 {
		t.Errorf("first: got %+v (%s)", got[0], deref(got[0].Channel))
	}
	// chat and pos tie on orders; the channel name breaks the tie.
	if deref(got[1].Channel) != "chat" || deref(got[2].Channel) != "pos" {
		t.Errorf("tie order: got %s, %s", deref(got[1].Channel), deref(got[2].Channel))
	}
}

func TestSolutionAdoption(t *testing.T) {
	now := time.Now()
	g := warehousetest.New(t, seedSales(now)...)

	got, err := SolutionAdoption(context.Background(), g, Since(now))
	if err != nil {
		t.Fatalf("SolutionAdoption: %v", err)
	}
	want := Solutions{
		NuvemPay:    Adoption{Count: 2, Percentage: 50},
		NuvemEnvios: Adoption{Count: 2, Percentage: 50},
	}
	if got != want {
		t.Errorf("SolutionAdoption: got %+v, want %+v", got, want)
	}
}

func TestSolutionAdoption_NoOrders(t *testing.T) {
	g := warehousetest.New(t)
	got, err := SolutionAdoption(context.Background(), g, Since(time.Now()))
	if err != nil {
		t.Fatalf("SolutionAdoption: %v", err)
	}
	if got != (Solutions{}) {
		t.Errorf("SolutionAdoption: got %+v, want zeros", got)
	}
}

func TestRegionCities(t *testing.T) {
	now := time.Now()
	seed := seedSales(now)
	for i := 0; i < 12; i++ {
		seed = append(seed, warehousetest.Sale{
			Date: warehousetest.Day(now, 0), State: "PR", City: string(rune('A' + i)),
			Channel: "online", StoreID: "p", GMV: float64(i + 1),
		}.Insert())
	}
	g := warehousetest.New(t, seed...)

	sp, err := RegionCities(context.Background(), g, "SP", Since(now))
	if err != nil {
		t.Fatalf("RegionCities(SP): %v", err)
	}
	if len(sp) != 2 || deref(sp[0].City) != "São Paulo" || sp[0].GMV != 150 || sp[0].Stores != 2 {
		t.Fatalf("RegionCities(SP): got %+v", sp)
	}

	pr, err := RegionCities(context.Background(), g, "PR", Since(now))
	if err != nil {
		t.Fatalf("RegionCities(PR): %v", err)
	}
	if len(pr) != CityLimit {
		t.Fatalf("RegionCities(PR): got %d rows, want %d", len(pr), CityLimit)
	}
	if deref(pr[0].City) != "L" || pr[0].GMV != 12 {
		t.Errorf("top city: got %s gmv %v, want L 12", deref(pr[0].City), pr[0].GMV)
	}

	none, err := RegionCities(context.Background(), g, "'; DROP TABLE x; --", Since(now))
	if err != nil {
		t.Fatalf("RegionCities(injection): %v", err)
	}
	if len(none) != 0 {
		t.Errorf("RegionCities(injection): got %d rows, want 0", len(none))
	}
}

func TestRecentSales(t *testing.T) {
	seed := []string{
		warehousetest.RecentSale{ID: "a", StoreName: "Loja A", City: "Recife", State: "PE", Channel: "online", Value: 10.5, Segment: "moda", NuvemPay: true, Timestamp: "2026-10-19T10:00:00Z"}.Insert(),
		warehousetest.RecentSale{ID: "b", StoreName: "Loja B", City: "Natal", State: "RN", Channel: "pos", Value: 20, Segment: "casa", FirstSale: true, Timestamp: "2026-10-19T12:00:00Z"}.Insert(),
		warehousetest.RecentSale{ID: "c", StoreName: "Loja C", City: "Belém", State: "PA", Channel: "chat", Value: 5, Segment: "pets", NuvemEnvios: true}.Insert(),
	}
	g := warehousetest.New(t, seed...)

	got, err := RecentSales(context.Background(), g, 20)
	if err != nil {
		t.Fatalf("RecentSales: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("RecentSales: got %d, want 3", len(got))
	}
	if deref(got[0].ID) != "b" || deref(got[1].ID) != "a" || deref(got[2].ID) != "c" {
		t.Errorf("order: got %s,%s,%s want b,a,c", deref(got[0].ID), deref(got[1].ID), deref(got[2].ID))
	}
	b := got[0]
	if deref(b.Region) != "RN" || b.Value != 20 || !b.IsFirstSale || b.UsesNuvemPay {
		t.Errorf("b: got %+v", b)
	}
	if deref(b.Timestamp) != "2026-10-19T12:00:00Z" {
		t.Errorf("b timestamp: got %s", deref(b.Timestamp))
	}
	if got[2].Timestamp != nil {
		t.Errorf("c timestamp: got %s, want nil", deref(got[2].Timestamp))
	}

	one, err := RecentSales(context.Background(), g, -5)
	if err != nil {
		t.Fatalf("RecentSales(-5): %v", err)
	}
	if len(one) != 1 {
		t.Errorf("RecentSales(-5): got %d rows, want 1", len(one))
	}
}

func TestRecentSales_LimitIsBoundAndClamped(t *testing.T) {
	var args []any
	g, err := warehouse.New(warehousetest.Config(), warehouse.WithHooks(warehouse.HookFuncs{
		Before: func(_ context.Context, _ string, a []any) { args = a },
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })

	if _, err := RecentSales(context.Background(), g, 500); err != nil {
		t.Fatalf("RecentSales: %v", err)
	}
	if len(args) != 1 || args[0] != MaxLimit {
		t.Errorf("bound args: got %v, want [%d]", args, MaxLimit)
	}
}

func TestQueries_PropagateDataSourceErrors(t *testing.T) {
	q := failingQuerier{err: errors.New("connection reset")}
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["Aggregated"] = Aggregated(ctx, q, "2026-01-01")
	_, checks["ByRegion"] = ByRegion(ctx, q, "2026-01-01")
	_, checks["ByChannel"] = ByChannel(ctx, q, "2026-01-01")
	_, checks["SolutionAdoption"] = SolutionAdoption(ctx, q, "2026-01-01")
	_, checks["RecentSales"] = RecentSales(ctx, q, 20)
	_, checks["RegionCities"] = RegionCities(ctx, q, "SP", "2026-01-01")

	for name, err := range checks {
		if !errors.Is(err, warehouse.ErrDataSource) {
			t.Errorf("%s: got %v, want ErrDataSource", name, err)
		}
	}
}
