package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"matchfeatures/internal/features"
	"matchfeatures/internal/matchmeta"
	"matchfeatures/internal/roster"
	"matchfeatures/internal/window"
	"matchfeatures/internal/zones"
)

func at(h, m int) time.Time {
	return time.Date(2024, 9, 14, h, m, 0, 0, time.UTC)
}

func testMatch() (matchmeta.MatchInfo, *features.Table) {
	info := matchmeta.MatchInfo{
		ID:              "2024-09-14-match",
		FirstHalfStart:  at(20, 0),
		FirstHalfEnd:    at(20, 10),
		SecondHalfStart: at(20, 25),
		SecondHalfEnd:   at(20, 30),
	}
	ivs := []window.Interval{
		{Start: at(20, 0), Duration: 5 * time.Minute},
		{Start: at(20, 5), Duration: 5 * time.Minute},
		{Start: at(20, 25), Duration: 5 * time.Minute},
	}
	table := features.Merge(ivs, []features.RoleRow{
		{Role: roster.Defender, Interval: ivs[0], Totals: zones.Totals{Zone5Distance: 1.25}},
		{Role: roster.Defender, Interval: ivs[1], Totals: zones.Totals{Zone5Distance: 2.5}},
		{Role: roster.Attacker, Interval: ivs[2], Totals: zones.Totals{Zone6Distance: 4.123456}},
	}, features.MergeOptions{})
	table.Rows[0].TotalXG = decimal.RequireFromString("0.120")
	table.Rows[1].TotalXG = decimal.RequireFromString("0.305")
	return info, table
}

func TestBuilderHalvesAndFull(t *testing.T) {
	info, table := testMatch()
	b := NewBuilder(func(matchmeta.MatchInfo) (float64, error) { return 1.23456, nil }, zerolog.Nop())
	b.Add(info, table)

	halves := b.Halves()
	if len(halves) != 2 {
		t.Fatalf("expected 2 half rows, got %d", len(halves))
	}
	if halves[0].Values["zone_5_distance_defenders"] != 3.75 || halves[0].Values["interval_duration"] != 600 {
		t.Fatalf("first half sums wrong: %v", halves[0].Values)
	}
	if halves[1].Values["zone_6_distance_attackers"] != 4.123456 || halves[1].Label != "2024-09-14 20:25:00" {
		t.Fatalf("second half wrong: %+v", halves[1])
	}
	full := b.Full()
	if len(full) != 1 || full[0].Values["interval_duration"] != 900 {
		t.Fatalf("full row wrong: %+v", full)
	}
	if full[0].XPts == nil || *full[0].XPts != 1.235 {
		t.Fatalf("xPts should be rounded to 3 decimals: %v", full[0].XPts)
	}

	var buf bytes.Buffer
	if err := b.WriteFull(&buf); err != nil {
		t.Fatalf("write full: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if !strings.HasPrefix(lines[0], "game_date,interval_duration,") || !strings.HasSuffix(lines[0], ",TotalxG,xPts") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if !strings.HasSuffix(lines[1], ",0.425,1.235") {
		t.Fatalf("TotalxG should use 3 decimals: %s", lines[1])
	}
	if !strings.Contains(lines[1], ",4.1235,") {
		t.Fatalf("values should use 4 decimals: %s", lines[1])
	}

	buf.Reset()
	if err := b.WriteHalves(&buf); err != nil {
		t.Fatalf("write halves: %v", err)
	}
	if !strings.Contains(buf.String(), "\n2024-09-14 20:00:00,1,600.0000,") {
		t.Fatalf("unexpected halves output: %s", buf.String())
	}
}

func TestBuilderXPtsFailure(t *testing.T) {
	info, table := testMatch()
	b := NewBuilder(func(matchmeta.MatchInfo) (float64, error) { return 0, errors.New("no event log") }, zerolog.Nop())
	b.Add(info, table)
	if b.Full()[0].XPts != nil {
		t.Fatal("xPts should be empty when the simulation fails")
	}
}

func TestFindFeatureFiles(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"ipl2425/b-match/features_b-match.csv",
		"ipl2324/a-match/features_a-match.csv",
		"ipl2324/a-match/2024-01-01-CB_3-Entire-Session.csv",
	} {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	paths, err := FindFeatureFiles(root)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(paths) != 2 || MatchIDFromFile(paths[0]) != "a-match" || MatchIDFromFile(paths[1]) != "b-match" {
		t.Fatalf("unexpected paths: %v", paths)
	}
}

func TestBuilderMixedAccelerationColumns(t *testing.T) {
	info, plain := testMatch()

	withAccel := matchmeta.MatchInfo{
		ID:              "2024-09-21-match",
		FirstHalfStart:  time.Date(2024, 9, 21, 20, 0, 0, 0, time.UTC),
		FirstHalfEnd:    time.Date(2024, 9, 21, 20, 5, 0, 0, time.UTC),
		SecondHalfStart: time.Date(2024, 9, 21, 20, 10, 0, 0, time.UTC),
		SecondHalfEnd:   time.Date(2024, 9, 21, 20, 15, 0, 0, time.UTC),
	}
	ivs := []window.Interval{
		{Start: withAccel.FirstHalfStart, Duration: 5 * time.Minute},
		{Start: withAccel.SecondHalfStart, Duration: 5 * time.Minute},
	}
	accel := features.Merge(ivs, []features.RoleRow{
		{Role: roster.Defender, Interval: ivs[0]},
	}, features.MergeOptions{Accelerations: true})

	b := NewBuilder(nil, zerolog.Nop())
	b.Add(withAccel, accel)
	b.Add(info, plain)

	var buf bytes.Buffer
	if err := b.WriteFull(&buf); err != nil {
		t.Fatalf("write full: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	header := strings.Split(lines[0], ",")
	col := slices.Index(header, "accelerations_defenders")
	if col < 0 {
		t.Fatalf("acceleration columns missing from header: %s", lines[0])
	}
	counted := strings.Split(lines[1], ",")
	missing := strings.Split(lines[2], ",")
	if counted[col] != "0.0000" {
		t.Fatalf("a counted zero should stay 0.0000, got %q", counted[col])
	}
	if missing[col] != "" {
		t.Fatalf("a match without acceleration columns should leave the cell empty, got %q", missing[col])
	}
	if missing[slices.Index(header, "zone_5_distance_defenders")] != "3.7500" {
		t.Fatalf("columns the match has are still written: %s", lines[2])
	}
}
