// Package dataset folds per-match feature files into season-level halves and
// full-game datasets.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"matchfeatures/internal/features"
	"matchfeatures/internal/matchmeta"
)

const (
	valuePlaces = 4
	xgPlaces    = 3
	xptsColumn  = "xPts"
)

// FindFeatureFiles returns every features_*.csv under root in lexical order.
func FindFeatureFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if !d.IsDir() && strings.HasPrefix(name, "features_") && strings.HasSuffix(name, ".csv") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	slices.Sort(paths)
	return paths, nil
}

// MatchIDFromFile recovers the match id from a feature file path.
func MatchIDFromFile(path string) string {
	return strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), "features_"), ".csv")
}

// XPtsFunc returns the expected points of the club of interest in a match.
type XPtsFunc func(info matchmeta.MatchInfo) (float64, error)

// Row is one dataset line.
type Row struct {
	MatchID string
	Label   string
	Half    int
	Values  map[string]float64
	XPts    *float64
}

// Builder accumulates matches.
type Builder struct {
	xpts    XPtsFunc
	logger  zerolog.Logger
	columns []string
	halves  []Row
	full    []Row
}

// NewBuilder constructs a Builder. xpts may be nil.
func NewBuilder(xpts XPtsFunc, logger zerolog.Logger) *Builder {
	return &Builder{xpts: xpts, logger: logger.With().Str("component", "dataset").Logger()}
}

// Add folds one match. Intervals starting before the first-half end belong to
// the first half.
func (b *Builder) Add(info matchmeta.MatchInfo, table *features.Table) {
	cols := table.ValueColumns()
	b.mergeColumns(cols)

	first := Row{MatchID: info.ID, Half: 1, Label: info.FirstHalfStart.Format(features.TimeLayout), Values: zeroValues(cols)}
	second := Row{MatchID: info.ID, Half: 2, Label: info.SecondHalfStart.Format(features.TimeLayout), Values: zeroValues(cols)}
	for _, row := range table.Rows {
		target := &second
		if row.Start.Before(info.FirstHalfEnd) {
			target = &first
		}
		for i, v := range table.Values(row) {
			target.Values[cols[i]] += v
		}
	}

	full := Row{MatchID: info.ID, Label: info.FirstHalfStart.Format(features.TimeLayout), Values: zeroValues(cols)}
	for _, half := range []Row{first, second} {
		for col, v := range half.Values {
			full.Values[col] += v
		}
	}
	if b.xpts != nil {
		if v, err := b.xpts(info); err != nil {
			b.logger.Warn().Err(err).Str("match", info.ID).Msg("xPts unavailable")
		} else {
			v = decimal.NewFromFloat(v).Round(xgPlaces).InexactFloat64()
			full.XPts = &v
		}
	}

	b.halves = append(b.halves, first, second)
	b.full = append(b.full, full)
}

// zeroValues holds an entry for every column the match's table has; columns
// missing from the map are written as empty cells.
func zeroValues(cols []string) map[string]float64 {
	values := make(map[string]float64, len(cols))
	for _, col := range cols {
		values[col] = 0
	}
	return values
}

func (b *Builder) mergeColumns(cols []string) {
	if len(cols) > len(b.columns) {
		// Tables with acceleration columns are a superset of those without.
		b.columns = slices.Clone(cols)
	}
}

// Halves returns the accumulated half rows.
func (b *Builder) Halves() []Row {
	return b.halves
}

// Full returns the accumulated full-game rows.
func (b *Builder) Full() []Row {
	return b.full
}

// WriteHalves encodes the halves dataset.
func (b *Builder) WriteHalves(w io.Writer) error {
	header := append([]string{features.ColIntervalStart, "half"}, b.columns...)
	return b.write(w, header, b.halves, func(r Row) []string {
		return []string{r.Label, strconv.Itoa(r.Half)}
	}, false)
}

// WriteFull encodes the full-game dataset.
func (b *Builder) WriteFull(w io.Writer) error {
	header := append([]string{"game_date"}, b.columns...)
	withXPts := b.xpts != nil
	if withXPts {
		header = append(header, xptsColumn)
	}
	return b.write(w, header, b.full, func(r Row) []string {
		return []string{r.Label}
	}, withXPts)
}

func (b *Builder) write(w io.Writer, header []string, rows []Row, lead func(Row) []string, withXPts bool) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		record := lead(r)
		for _, col := range b.columns {
			v, ok := r.Values[col]
			if !ok {
				record = append(record, "")
				continue
			}
			record = append(record, formatValue(col, v))
		}
		if withXPts {
			cell := ""
			if r.XPts != nil {
				cell = decimal.NewFromFloat(*r.XPts).StringFixed(xgPlaces)
			}
			record = append(record, cell)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatValue(col string, v float64) string {
	places := int32(valuePlaces)
	if col == features.ColTotalXG {
		places = xgPlaces
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}
