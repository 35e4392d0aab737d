// Package events reads the per-match shot and possession log.
package events

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"matchfeatures/internal/csvutil"
)

const timeLayout = "2006-01-02 15:04:05"

// Play styles referenced by Filter.
const (
	PlayStylePenalty  = "Penalty"
	PlayStyleOpenPlay = "Open Play"
)

// Record is one row of the event log. Time is zero when the row carries no
// timestamp.
type Record struct {
	Time       time.Time
	Team       string
	Possession string
	XG         decimal.Decimal
	HomeTeam   string
	AwayTeam   string
	PlayStyle  string
}

// Path returns the event log location of a match.
func Path(root, season, matchID string) string {
	return filepath.Join(root, season, matchID+".csv")
}

// ReadFile reads the event log at path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()
	records, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// Read parses an event log. Blank xG values count as zero.
func Read(r io.Reader) ([]Record, error) {
	reader := csvutil.NewReader(r)
	header, err := csvutil.ReadHeader(reader)
	if err != nil {
		return nil, err
	}
	if err := header.Require("xG"); err != nil {
		return nil, err
	}

	var records []Record
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read events: %w", err)
		}
		line++

		rec := Record{
			Team:       header.Get(row, "Team"),
			Possession: header.Get(row, "PossNum"),
			HomeTeam:   header.Get(row, "homeTeam"),
			AwayTeam:   header.Get(row, "awayTeam"),
			PlayStyle:  header.Get(row, "ShotPlayStyle"),
			XG:         decimal.Zero,
		}
		if raw := header.Get(row, "TimeStamp"); raw != "" {
			ts, err := time.Parse(timeLayout, raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: timestamp: %w", line, err)
			}
			rec.Time = ts
		}
		if raw := header.Get(row, "xG"); raw != "" && !strings.EqualFold(raw, "nan") {
			xg, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: xG: %w", line, err)
			}
			rec.XG = xg
		}
		records = append(records, rec)
	}
	return records, nil
}

// Filter narrows an event log before labelling.
type Filter struct {
	Team             string
	ExcludePenalties bool
	OpenPlayOnly     bool
}

// Apply returns the records that pass the filter. The input is not modified.
func (f Filter) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if f.Team != "" && rec.Team != f.Team {
			continue
		}
		if f.OpenPlayOnly {
			if rec.PlayStyle != PlayStyleOpenPlay {
				continue
			}
		} else if f.ExcludePenalties && rec.PlayStyle == PlayStylePenalty {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Teams returns the home and away team named by the log.
func Teams(records []Record) (home, away string, ok bool) {
	for _, rec := range records {
		if rec.HomeTeam != "" && rec.AwayTeam != "" {
			return rec.HomeTeam, rec.AwayTeam, true
		}
	}
	return "", "", false
}
