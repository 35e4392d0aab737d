package lineup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"matchfeatures/internal/csvutil"
	"matchfeatures/internal/matchmeta"
)

// ReportedSub is a substitution row as published, keyed by match minute.
type ReportedSub struct {
	Minute int
	Out    string
	In     string
}

// Actual is the published lineup and substitution list of a match.
type Actual struct {
	Lineup []string
	Subs   []ReportedSub
}

// ActualPaths returns the lineup and substitutes file locations of a match.
func ActualPaths(root, season, matchID string) (lineupPath, subsPath string) {
	dir := filepath.Join(root, season)
	return filepath.Join(dir, matchID+"-lineup.json"), filepath.Join(dir, matchID+"-substitutes.csv")
}

// LoadActual reads the published lineup data of a match. Missing files
// produce an error matching os.ErrNotExist.
func LoadActual(root, season, matchID string) (*Actual, error) {
	lineupPath, subsPath := ActualPaths(root, season, matchID)

	raw, err := os.ReadFile(lineupPath)
	if err != nil {
		return nil, fmt.Errorf("read lineup: %w", err)
	}
	var actual Actual
	if err := json.Unmarshal(raw, &actual.Lineup); err != nil {
		return nil, fmt.Errorf("decode lineup %s: %w", filepath.Base(lineupPath), err)
	}

	f, err := os.Open(subsPath)
	if err != nil {
		return nil, fmt.Errorf("open substitutes: %w", err)
	}
	defer f.Close()
	if actual.Subs, err = ReadSubs(f); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(subsPath), err)
	}
	return &actual, nil
}

// ReadSubs parses a substitutes CSV with Minute, Out Player and In Player columns.
func ReadSubs(r io.Reader) ([]ReportedSub, error) {
	reader := csvutil.NewReader(r)
	header, err := csvutil.ReadHeader(reader)
	if err != nil {
		return nil, err
	}
	if err := header.Require("Minute", "Out Player", "In Player"); err != nil {
		return nil, err
	}

	var subs []ReportedSub
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read substitutes: %w", err)
		}
		minute, err := strconv.Atoi(header.Get(record, "Minute"))
		if err != nil {
			return nil, fmt.Errorf("minute: %w", err)
		}
		subs = append(subs, ReportedSub{
			Minute: minute,
			Out:    header.Get(record, "Out Player"),
			In:     header.Get(record, "In Player"),
		})
	}
	return subs, nil
}

// Substitutions converts the reported minutes to wall-clock times.
func (a *Actual) Substitutions(info matchmeta.MatchInfo) []Substitution {
	out := make([]Substitution, 0, len(a.Subs))
	for _, s := range a.Subs {
		out = append(out, Substitution{Out: s.Out, In: s.In, At: info.MinuteToClock(s.Minute)})
	}
	return out
}
