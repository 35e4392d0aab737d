package telemetry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParsePlayerFileName(t *testing.T) {
	pf, err := ParsePlayerFileName("/data/2024-09-14-CB_4-Entire-Session.csv")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if pf.PlayerID != "CB_4" || pf.Position != "CB" {
		t.Fatalf("unexpected player: %+v", pf)
	}
	if !pf.Date.Equal(time.Date(2024, 9, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %s", pf.Date)
	}

	for _, bad := range []string{"notes.txt", "2024-09-14.csv", "2024-13-14-CB_4-Entire-Session.csv", "2024-09-14-Keeper-Entire-Session.csv"} {
		if _, err := ParsePlayerFileName(bad); !errors.Is(err, ErrBadFileName) {
			t.Errorf("%s: expected ErrBadFileName, got %v", bad, err)
		}
	}
}

func TestReadSamples(t *testing.T) {
	input := strings.Join([]string{
		"Time,Lat,Lon,Speed (m/s),Accl X,Accl Y,Accl Z",
		"10:00:00.020,32.78,35.0,6.0,0.1,0.2,0.3",
		"10:00:00.010,32.78,35.0,5.5,0.1,0.2,0.3",
		"10:00:00.030,0,0,7.0,0,0,0",
		"10:00:00.040,32.78,35.0,,1,1,1",
	}, "\n")
	date := time.Date(2024, 9, 14, 0, 0, 0, 0, time.UTC)

	samples, err := ReadSamples(strings.NewReader(input), date)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(samples) != 4 {
		t.Fatalf("every row should be kept, got %d samples", len(samples))
	}
	if samples[2].HasFix() || samples[2].Speed != 7.0 {
		t.Fatalf("no-fix row should keep its speed and report no fix: %+v", samples[2])
	}
	if samples[0].Speed != 5.5 || samples[1].Speed != 6.0 {
		t.Fatalf("samples should be sorted by time: %+v", samples)
	}
	want := time.Date(2024, 9, 14, 10, 0, 0, 10*int(time.Millisecond), time.UTC)
	if !samples[0].Time.Equal(want) {
		t.Fatalf("time = %s, want %s", samples[0].Time, want)
	}
	if samples[3].HasSpeed {
		t.Fatal("blank speed should be marked missing")
	}
	if !samples[0].HasAccel || samples[0].AccelZ != 0.3 {
		t.Fatalf("accel not parsed: %+v", samples[0])
	}
}

func TestReadSamplesFullTimestamp(t *testing.T) {
	input := "Time,Lat,Lon,Speed (m/s)\n2024-09-14 20:15:01.5,32.1,34.8,3.2\n"
	samples, err := ReadSamples(strings.NewReader(input), time.Time{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := time.Date(2024, 9, 14, 20, 15, 1, 500*int(time.Millisecond), time.UTC)
	if len(samples) != 1 || !samples[0].Time.Equal(want) {
		t.Fatalf("unexpected samples: %+v", samples)
	}
}

func TestReadSamplesMissingColumn(t *testing.T) {
	if _, err := ReadSamples(strings.NewReader("Time,Lat\n"), time.Time{}); err == nil {
		t.Fatal("missing Lon column should fail")
	}
}

func TestListMatchFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"2024-09-14-ST_9-Entire-Session.csv",
		"2024-09-14-CB_4-Entire-Session.csv",
		"features_2024-09-14-match.csv",
		"readme.csv",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("Time,Lat,Lon\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	files, skipped, err := ListMatchFiles(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 || files[0].PlayerID != "CB_4" || files[1].PlayerID != "ST_9" {
		t.Fatalf("unexpected files: %+v", files)
	}
	if len(skipped) != 1 || skipped[0] != "readme.csv" {
		t.Fatalf("unexpected skipped: %v", skipped)
	}
}
