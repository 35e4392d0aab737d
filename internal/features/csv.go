package features

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"matchfeatures/internal/csvutil"
	"matchfeatures/internal/roster"
)

// TimeLayout is the interval_start format of feature files.
const TimeLayout = "2006-01-02 15:04:05"

// DefaultPrecision is the number of decimals written for feature values.
const DefaultPrecision = 4

// FileName returns the feature file name of a match.
func FileName(matchID string) string {
	return "features_" + matchID + ".csv"
}

// WriteCSV encodes the table with a fixed number of decimals. TotalxG always
// uses three decimals and counts are written as integers.
func WriteCSV(w io.Writer, t *Table, precision int) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns()); err != nil {
		return err
	}

	cols := t.ValueColumns()
	for _, row := range t.Rows {
		vals := t.Values(row)
		record := make([]string, 0, len(cols)+1)
		record = append(record, row.Start.Format(TimeLayout))
		for i, col := range cols {
			record = append(record, formatCell(col, vals[i], precision))
		}
		record[len(record)-1] = row.TotalXG.StringFixed(3)
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatCell(col string, v float64, precision int) string {
	if isCountColumn(col) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

func isCountColumn(col string) bool {
	for _, role := range roleOrder {
		if col == "accelerations_"+role.Plural() || col == "decelerations_"+role.Plural() {
			return true
		}
	}
	return false
}

// WriteFile writes the table to path, creating parent directories.
func WriteFile(path string, t *Table, precision int) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(file, t, precision); err != nil {
		file.Close()
		return fmt.Errorf("write features: %w", err)
	}
	return file.Close()
}

// ReadFile reads a feature file written by WriteFile.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open features: %w", err)
	}
	defer f.Close()
	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// ReadCSV decodes a feature file. Acceleration columns are optional.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csvutil.NewReader(r)
	header, err := csvutil.ReadHeader(reader)
	if err != nil {
		return nil, err
	}

	t := &Table{Accelerations: header.Has("accelerations_" + roster.Defender.Plural())}
	if err := header.Require(t.Columns()...); err != nil {
		return nil, err
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read features: %w", err)
		}
		line++

		row, err := parseRow(t, header, record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func parseRow(t *Table, header csvutil.Header, record []string) (Row, error) {
	start, err := time.Parse(TimeLayout, header.Get(record, ColIntervalStart))
	if err != nil {
		return Row{}, fmt.Errorf("interval_start: %w", err)
	}
	num := func(col string) (float64, error) {
		v, err := strconv.ParseFloat(header.Get(record, col), 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", col, err)
		}
		return v, nil
	}

	row := Row{Start: start}
	secs, err := num(ColIntervalDuration)
	if err != nil {
		return Row{}, err
	}
	row.Duration = time.Duration(secs * float64(time.Second))

	for i, role := range roleOrder {
		p := role.Plural()
		tot := &row.Roles[i].Totals
		for col, dst := range map[string]*float64{
			"zone_5_distance_" + p: &tot.Zone5Distance,
			"zone_5_time_" + p:     &tot.Zone5Time,
			"zone_6_distance_" + p: &tot.Zone6Distance,
			"zone_6_time_" + p:     &tot.Zone6Time,
		} {
			if *dst, err = num(col); err != nil {
				return Row{}, err
			}
		}
		if t.Accelerations {
			acc, err := num("accelerations_" + p)
			if err != nil {
				return Row{}, err
			}
			dec, err := num("decelerations_" + p)
			if err != nil {
				return Row{}, err
			}
			row.Roles[i].Accelerations, row.Roles[i].Decelerations = int(acc), int(dec)
		}
	}

	for col, dst := range map[string]*float64{
		"total_zone_5_distance": &row.Total.Zone5Distance,
		"total_zone_5_time":     &row.Total.Zone5Time,
		"total_zone_6_distance": &row.Total.Zone6Distance,
		"total_zone_6_time":     &row.Total.Zone6Time,
	} {
		if *dst, err = num(col); err != nil {
			return Row{}, err
		}
	}

	xg, err := decimal.NewFromString(header.Get(record, ColTotalXG))
	if err != nil {
		return Row{}, fmt.Errorf("%s: %w", ColTotalXG, err)
	}
	row.TotalXG = xg
	return row, nil
}
