// Package telemetry reads per-player GPS exports.
package telemetry

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"matchfeatures/internal/csvutil"
	"matchfeatures/internal/roster"
)

// ErrBadFileName is returned for player files that do not follow
// YYYY-MM-DD-<POS>_<NUM>-....csv.
var ErrBadFileName = errors.New("telemetry: unexpected player file name")

// Fractional seconds are accepted by time.Parse without being in the layout.
const (
	fullLayout  = "2006-01-02 15:04:05"
	clockLayout = "15:04:05"
)

// Sample is one device reading.
type Sample struct {
	Time     time.Time
	Lat      float64
	Lon      float64
	Speed    float64
	HasSpeed bool
	AccelX   float64
	AccelY   float64
	AccelZ   float64
	HasAccel bool
}

// HasFix reports whether the device had a satellite fix. Exports write
// Lat 0 when it did not.
func (s Sample) HasFix() bool {
	return s.Lat != 0
}

// PlayerFile is the metadata carried by a player export's file name.
type PlayerFile struct {
	Path     string
	Date     time.Time
	PlayerID string
	Position string
}

// ParsePlayerFileName validates a player export path and extracts its date
// and player id.
func ParsePlayerFileName(path string) (PlayerFile, error) {
	base := filepath.Base(path)
	if !strings.EqualFold(filepath.Ext(base), ".csv") {
		return PlayerFile{}, fmt.Errorf("%w: %s", ErrBadFileName, base)
	}
	parts := strings.Split(strings.TrimSuffix(base, filepath.Ext(base)), "-")
	if len(parts) < 4 {
		return PlayerFile{}, fmt.Errorf("%w: %s", ErrBadFileName, base)
	}
	date, err := time.Parse("2006-01-02", strings.Join(parts[:3], "-"))
	if err != nil {
		return PlayerFile{}, fmt.Errorf("%w: %s: %v", ErrBadFileName, base, err)
	}
	player := parts[3]
	pos, num, ok := strings.Cut(player, "_")
	if !ok || pos == "" || num == "" {
		return PlayerFile{}, fmt.Errorf("%w: %s", ErrBadFileName, base)
	}
	return PlayerFile{Path: path, Date: date, PlayerID: player, Position: roster.PositionOf(player)}, nil
}

// ListMatchFiles returns the player exports of a match folder sorted by name.
// Feature outputs and files with unexpected names are reported in skipped.
func ListMatchFiles(dir string) (files []PlayerFile, skipped []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("list match dir: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".csv") || strings.HasPrefix(name, "features_") {
			continue
		}
		pf, perr := ParsePlayerFileName(filepath.Join(dir, name))
		if perr != nil {
			skipped = append(skipped, name)
			continue
		}
		files = append(files, pf)
	}
	slices.SortFunc(files, func(a, b PlayerFile) int {
		return strings.Compare(filepath.Base(a.Path), filepath.Base(b.Path))
	})
	return files, skipped, nil
}

// ReadFile reads the samples of one player export.
func ReadFile(pf PlayerFile) ([]Sample, error) {
	f, err := os.Open(pf.Path)
	if err != nil {
		return nil, fmt.Errorf("open player file: %w", err)
	}
	defer f.Close()
	samples, err := ReadSamples(f, pf.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(pf.Path), err)
	}
	return samples, nil
}

// ReadSamples parses a GPS export. Clock-only times are placed on date. Rows
// without a GPS fix are dropped and the result is ordered by time.
func ReadSamples(r io.Reader, date time.Time) ([]Sample, error) {
	reader := csvutil.NewReader(r)
	header, err := csvutil.ReadHeader(reader)
	if err != nil {
		return nil, err
	}
	if err := header.Require("Time", "Lat", "Lon"); err != nil {
		return nil, err
	}
	hasAccel := header.Has("Accl X") && header.Has("Accl Y") && header.Has("Accl Z")

	var samples []Sample
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read samples: %w", err)
		}
		line++

		ts, err := parseTime(header.Get(record, "Time"), date)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		lat, err := strconv.ParseFloat(header.Get(record, "Lat"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: lat: %w", line, err)
		}
		lon, err := strconv.ParseFloat(header.Get(record, "Lon"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: lon: %w", line, err)
		}

		s := Sample{Time: ts, Lat: lat, Lon: lon}
		if speed, err := strconv.ParseFloat(header.Get(record, "Speed (m/s)"), 64); err == nil {
			s.Speed = speed
			s.HasSpeed = true
		}
		if hasAccel {
			s.AccelX, s.AccelY, s.AccelZ, s.HasAccel = parseAccel(header, record)
		}
		samples = append(samples, s)
	}

	slices.SortStableFunc(samples, func(a, b Sample) int {
		return a.Time.Compare(b.Time)
	})
	return samples, nil
}

func parseAccel(header csvutil.Header, record []string) (x, y, z float64, ok bool) {
	var err error
	if x, err = strconv.ParseFloat(header.Get(record, "Accl X"), 64); err != nil {
		return 0, 0, 0, false
	}
	if y, err = strconv.ParseFloat(header.Get(record, "Accl Y"), 64); err != nil {
		return 0, 0, 0, false
	}
	if z, err = strconv.ParseFloat(header.Get(record, "Accl Z"), 64); err != nil {
		return 0, 0, 0, false
	}
	return x, y, z, true
}

func parseTime(raw string, date time.Time) (time.Time, error) {
	if ts, err := time.Parse(fullLayout, raw); err == nil {
		return ts, nil
	}
	clock, err := time.Parse(clockLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("time %q: %w", raw, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), time.UTC), nil
}
