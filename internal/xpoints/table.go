package xpoints

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"matchfeatures/internal/csvutil"
)

// Standing is a team's actual season record.
type Standing struct {
	Points   int
	Position int
}

// ReadStandings parses a CSV with Team, Points and Position columns.
func ReadStandings(r io.Reader) (map[string]Standing, error) {
	reader := csvutil.NewReader(r)
	header, err := csvutil.ReadHeader(reader)
	if err != nil {
		return nil, err
	}
	if err := header.Require("Team", "Points", "Position"); err != nil {
		return nil, err
	}

	out := make(map[string]Standing)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read standings: %w", err)
		}
		team := header.Get(record, "Team")
		points, err := strconv.Atoi(header.Get(record, "Points"))
		if err != nil {
			return nil, fmt.Errorf("%s points: %w", team, err)
		}
		pos, err := strconv.Atoi(header.Get(record, "Position"))
		if err != nil {
			return nil, fmt.Errorf("%s position: %w", team, err)
		}
		out[team] = Standing{Points: points, Position: pos}
	}
	return out, nil
}

// TableRow is one team's season line under a model.
type TableRow struct {
	Team        string
	Model       Model
	Games       int
	TotalXPts   float64
	XPtsPerGame float64
	PredPos     int
	Actual      *Standing
}

// PtsDiff is actual minus expected points; ok is false without standings.
func (r TableRow) PtsDiff() (float64, bool) {
	if r.Actual == nil {
		return 0, false
	}
	return float64(r.Actual.Points) - r.TotalXPts, true
}

// PosDiff is actual minus predicted position; ok is false without standings.
func (r TableRow) PosDiff() (int, bool) {
	if r.Actual == nil {
		return 0, false
	}
	return r.Actual.Position - r.PredPos, true
}

// SeasonTable totals both teams' expected points over the simulated
// matches. Predicted positions rank total xPts descending, ties sharing the
// lowest rank. Rows are ordered by actual position when standings are given,
// otherwise by predicted position then team.
func SeasonTable(results []MatchResult, model Model, standings map[string]Standing) []TableRow {
	byTeam := make(map[string]*TableRow)
	add := func(team string, xpts float64) {
		row, ok := byTeam[team]
		if !ok {
			row = &TableRow{Team: team, Model: model}
			byTeam[team] = row
		}
		row.Games++
		row.TotalXPts += xpts
	}
	for _, res := range results {
		o := res.Outcome(model)
		add(res.Home, ExpectedPoints(res.Home, res.Home, o))
		add(res.Away, ExpectedPoints(res.Away, res.Home, o))
	}

	rows := make([]TableRow, 0, len(byTeam))
	for _, row := range byTeam {
		row.XPtsPerGame = row.TotalXPts / float64(row.Games)
		if st, ok := standings[row.Team]; ok {
			st := st
			row.Actual = &st
		}
		rows = append(rows, *row)
	}

	for i := range rows {
		rank := 1
		for j := range rows {
			if rows[j].TotalXPts > rows[i].TotalXPts {
				rank++
			}
		}
		rows[i].PredPos = rank
	}

	slices.SortFunc(rows, func(a, b TableRow) int {
		switch {
		case a.Actual != nil && b.Actual != nil:
			if c := cmp.Compare(a.Actual.Position, b.Actual.Position); c != 0 {
				return c
			}
		case a.Actual != nil:
			return -1
		case b.Actual != nil:
			return 1
		}
		if c := cmp.Compare(a.PredPos, b.PredPos); c != 0 {
			return c
		}
		return cmp.Compare(a.Team, b.Team)
	})
	return rows
}
