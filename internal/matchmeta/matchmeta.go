// Package matchmeta loads the per-match half boundaries and derives season labels.
package matchmeta

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"matchfeatures/internal/csvutil"
)

var (
	// ErrMatchNotFound is returned when the catalog has no row for a match.
	ErrMatchNotFound = errors.New("matchmeta: match not found")
	// ErrBadClock marks a malformed or inconsistent half boundary.
	ErrBadClock = errors.New("matchmeta: bad clock")
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04:05"
)

// RedCard truncates one player's data at the moment of the dismissal.
type RedCard struct {
	PlayerID string
	At       time.Time
}

// MatchInfo is the validated metadata record attached to one match.
type MatchInfo struct {
	ID              string
	Date            time.Time
	FirstHalfStart  time.Time
	FirstHalfEnd    time.Time
	SecondHalfStart time.Time
	SecondHalfEnd   time.Time
	RedCards        []RedCard
}

type rawRow struct {
	id      string
	clocks  [4]string
	redCard string
}

// Catalog indexes metadata rows by match id. Rows are validated lazily so a
// malformed row only fails its own match.
type Catalog struct {
	rows map[string]rawRow
}

// LoadFile reads the metadata CSV at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a metadata CSV.
func Load(r io.Reader) (*Catalog, error) {
	reader := csvutil.NewReader(r)
	header, err := csvutil.ReadHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	required := []string{"game_folder_name", "start_csv_time", "first_half_finish_csv_time", "second_half_start_csv_time", "second_half_finish_csv_time"}
	if err := header.Require(required...); err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}

	cat := &Catalog{rows: make(map[string]rawRow)}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read metadata row: %w", err)
		}
		row := rawRow{id: header.Get(record, "game_folder_name")}
		if row.id == "" {
			continue
		}
		for i, col := range required[1:] {
			row.clocks[i] = header.Get(record, col)
		}
		row.redCard = header.Get(record, "red cards")
		if _, dup := cat.rows[row.id]; !dup {
			cat.rows[row.id] = row
		}
	}
	return cat, nil
}

// Len returns the number of matches in the catalog.
func (c *Catalog) Len() int {
	return len(c.rows)
}

// Lookup validates and returns the metadata for a match id.
func (c *Catalog) Lookup(matchID string) (MatchInfo, error) {
	row, ok := c.rows[matchID]
	if !ok {
		return MatchInfo{}, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}

	date, err := MatchDate(matchID)
	if err != nil {
		return MatchInfo{}, err
	}

	var clocks [4]time.Time
	for i, raw := range row.clocks {
		ts, err := AtClock(date, raw)
		if err != nil {
			return MatchInfo{}, err
		}
		clocks[i] = ts
	}

	info := MatchInfo{
		ID:              matchID,
		Date:            date,
		FirstHalfStart:  clocks[0],
		FirstHalfEnd:    clocks[1],
		SecondHalfStart: clocks[2],
		SecondHalfEnd:   clocks[3],
	}
	if info.SecondHalfStart.Before(info.FirstHalfEnd) {
		return MatchInfo{}, fmt.Errorf("%w: second half of %s starts before the first half ends", ErrBadClock, matchID)
	}

	if row.redCard != "" {
		cards, err := parseRedCards(date, row.redCard)
		if err != nil {
			return MatchInfo{}, err
		}
		info.RedCards = cards
	}
	return info, nil
}

// MatchDate parses the YYYY-MM-DD prefix of a match folder name.
func MatchDate(matchID string) (time.Time, error) {
	if len(matchID) < len(dateLayout) {
		return time.Time{}, fmt.Errorf("%w: no date prefix in %q", ErrBadClock, matchID)
	}
	date, err := time.Parse(dateLayout, matchID[:len(dateLayout)])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: match date of %q: %v", ErrBadClock, matchID, err)
	}
	return date, nil
}

// AtClock combines a match date with an HH:MM:SS clock string.
func AtClock(date time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse(clockLayout, strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrBadClock, clock, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), parsed.Second(), 0, time.UTC), nil
}

// MinuteToClock converts a match minute into wall-clock time. Minutes past 45
// count from the second-half kickoff.
func (m MatchInfo) MinuteToClock(minute int) time.Time {
	if minute > 45 {
		return m.SecondHalfStart.Add(time.Duration(minute-45) * time.Minute)
	}
	return m.FirstHalfStart.Add(time.Duration(minute) * time.Minute)
}

// Season returns the season label of the season containing date, e.g.
// "ipl2425" for 2024-08-31 with prefix "ipl" and start month 8.
func Season(date time.Time, prefix string, startMonth int) string {
	first := date.Year()
	if int(date.Month()) < startMonth {
		first--
	}
	return fmt.Sprintf("%s%02d%02d", prefix, first%100, (first+1)%100)
}

func parseRedCards(date time.Time, raw string) ([]RedCard, error) {
	var cards []RedCard
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		player, clock, ok := strings.Cut(entry, "|")
		if !ok {
			return nil, fmt.Errorf("%w: red card %q", ErrBadClock, entry)
		}
		at, err := AtClock(date, clock)
		if err != nil {
			return nil, err
		}
		cards = append(cards, RedCard{PlayerID: strings.TrimSpace(player), At: at})
	}
	return cards, nil
}
