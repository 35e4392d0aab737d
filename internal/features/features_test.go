package features

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"matchfeatures/internal/events"
	"matchfeatures/internal/roster"
	"matchfeatures/internal/window"
	"matchfeatures/internal/zones"
)

func at(h, m, s int) time.Time {
	return time.Date(2024, 9, 14, h, m, s, 0, time.UTC)
}

func testIntervals() []window.Interval {
	return []window.Interval{
		{Start: at(10, 0, 0), Duration: 5 * time.Minute, Half: window.FirstHalf},
		{Start: at(10, 5, 0), Duration: 5 * time.Minute, Half: window.FirstHalf},
	}
}

func TestMergeTotalsAcrossRoles(t *testing.T) {
	ivs := testIntervals()
	rows := []RoleRow{
		{Role: roster.Defender, Interval: ivs[0], Totals: zones.Totals{Zone5Distance: 10}},
		{Role: roster.Defender, Interval: ivs[0], Totals: zones.Totals{Zone5Distance: 2.5}},
		{Role: roster.Midfielder, Interval: ivs[0], Totals: zones.Totals{Zone5Distance: 7.5}},
		{Role: roster.Attacker, Interval: ivs[0], Totals: zones.Totals{}},
	}

	table := Merge(ivs, rows, MergeOptions{})
	if len(table.Rows) != 2 {
		t.Fatalf("expected one row per interval, got %d", len(table.Rows))
	}
	first := table.Rows[0]
	if got := first.Role(roster.Defender).Totals.Zone5Distance; got != 12.5 {
		t.Fatalf("defender zone 5 = %v, want 12.5", got)
	}
	if first.Total.Zone5Distance != 20.0 {
		t.Fatalf("total zone 5 = %v, want 20", first.Total.Zone5Distance)
	}
	if first.Duration != 5*time.Minute {
		t.Fatalf("duration must not be summed, got %s", first.Duration)
	}

	second := table.Rows[1]
	if second.Total != (zones.Totals{}) || second.Role(roster.Goalkeeper).Totals != (zones.Totals{}) {
		t.Fatalf("interval without data should be zero-filled: %+v", second)
	}
}

func TestMergeIgnoresUnknownIntervals(t *testing.T) {
	ivs := testIntervals()
	stray := window.Interval{Start: at(11, 0, 0), Duration: time.Minute}
	table := Merge(ivs, []RoleRow{{Role: roster.Attacker, Interval: stray, Totals: zones.Totals{Zone6Time: 1}}}, MergeOptions{})
	if len(table.Rows) != 2 || table.Rows[0].Total.Zone6Time != 0 {
		t.Fatalf("row outside the interval grid should be ignored: %+v", table.Rows)
	}
}

func TestJoinXG(t *testing.T) {
	table := Merge(testIntervals(), nil, MergeOptions{})
	records := []events.Record{
		{Time: at(10, 3, 0), XG: decimal.RequireFromString("0.12")},
		{Time: at(10, 5, 0).Add(-time.Nanosecond), XG: decimal.RequireFromString("0.0004")},
		{Time: at(10, 10, 0), XG: decimal.RequireFromString("0.5")},
	}
	JoinXG(table, records)

	if got := table.Rows[0].TotalXG.StringFixed(3); got != "0.120" {
		t.Fatalf("first interval xG = %s, want 0.120", got)
	}
	if got := table.Rows[1].TotalXG.StringFixed(3); got != "0.000" {
		t.Fatalf("second interval xG = %s, want 0.000", got)
	}
}

func TestWriteCSVDeterministic(t *testing.T) {
	ivs := testIntervals()
	rows := []RoleRow{
		{Role: roster.Defender, Interval: ivs[0], Totals: zones.Totals{Zone5Distance: 12.5, Zone5Time: 2.1}, Accelerations: 3, Decelerations: 1},
		{Role: roster.Goalkeeper, Interval: ivs[1], Totals: zones.Totals{Zone6Distance: 1.0 / 3}},
	}
	build := func() *Table {
		table := Merge(ivs, rows, MergeOptions{Accelerations: true})
		JoinXG(table, []events.Record{{Time: at(10, 1, 0), XG: decimal.RequireFromString("0.0456")}})
		return table
	}

	var a, b bytes.Buffer
	if err := WriteCSV(&a, build(), DefaultPrecision); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteCSV(&b, build(), DefaultPrecision); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatal("output should be byte-identical across runs")
	}

	lines := strings.Split(strings.TrimSpace(a.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "interval_start,interval_duration,zone_5_distance_defenders,") || !strings.HasSuffix(lines[0], ",total_zone_6_time,TotalxG") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2024-09-14 10:00:00,300.0000,12.5000,2.1000,") || !strings.HasSuffix(lines[1], ",0.046") {
		t.Fatalf("unexpected first row: %s", lines[1])
	}
	if !strings.Contains(lines[2], ",0.3333,") {
		t.Fatalf("values should use fixed precision: %s", lines[2])
	}
}

func TestReadCSVRoundTrip(t *testing.T) {
	ivs := testIntervals()
	table := Merge(ivs, []RoleRow{
		{Role: roster.Midfielder, Interval: ivs[1], Totals: zones.Totals{Zone6Distance: 8.25, Zone6Time: 1.1}, Accelerations: 2},
	}, MergeOptions{Accelerations: true})

	var buf bytes.Buffer
	if err := WriteCSV(&buf, table, DefaultPrecision); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !got.Accelerations || len(got.Rows) != 2 {
		t.Fatalf("unexpected table: %+v", got)
	}
	mid := got.Rows[1].Role(roster.Midfielder)
	if mid.Totals.Zone6Distance != 8.25 || mid.Accelerations != 2 {
		t.Fatalf("midfielder values lost: %+v", mid)
	}
	if got.Rows[1].Total.Zone6Time != 1.1 || got.Rows[1].Duration != 5*time.Minute {
		t.Fatalf("row values lost: %+v", got.Rows[1])
	}
}
