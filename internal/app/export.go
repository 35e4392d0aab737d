package app

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"matchfeatures/internal/features"
	"matchfeatures/internal/service"
)

// featuresPath accepts a features CSV path or a match folder/id.
func (a *App) featuresPath(arg string) (string, error) {
	if strings.EqualFold(filepath.Ext(arg), ".csv") {
		return arg, nil
	}
	m, err := a.resolveMatch(arg)
	if err != nil {
		return "", err
	}
	return service.New(a.Config, service.Deps{}, a.Logger).OutputPath(m), nil
}

// Export renders the zone distances and xG of a match as a PNG chart.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.Match == "" {
		return errors.New("a match or features file is required")
	}
	path, err := a.featuresPath(opts.Match)
	if err != nil {
		return err
	}
	table, err := features.ReadFile(path)
	if err != nil {
		return err
	}
	if len(table.Rows) == 0 {
		a.Logger.Info().Str("file", path).Msg("no intervals to export")
		return nil
	}

	maxPoints := a.Config.ResolveMaxPoints(opts.MaxPoints)
	rows := downsampleRows(table.Rows, maxPoints)

	png := opts.PNGPath
	if png == "" {
		png = strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
	}
	a.Logger.Info().Int("total", len(table.Rows)).Int("exported", len(rows)).Str("png", png).Msg("exporting intervals")
	return writeFeaturesPNG(png, rows)
}

func downsampleRows(rows []features.Row, max int) []features.Row {
	if max <= 1 || len(rows) <= max {
		return rows
	}

	result := make([]features.Row, 0, max)
	step := float64(len(rows)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(rows) {
			idx = len(rows) - 1
		}
		result = append(result, rows[idx])
	}
	return result
}

func writeFeaturesPNG(path string, rows []features.Row) error {
	if len(rows) < 2 {
		return errors.New("at least two intervals are needed to draw a chart")
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(rows))
	zone5 := make([]float64, len(rows))
	zone6 := make([]float64, len(rows))
	xg := make([]float64, len(rows))

	// Axes start at zero and never collapse to an empty range.
	maxDistance, maxXG := 1.0, 0.1
	for i, row := range rows {
		x[i] = row.Start
		zone5[i] = row.Total.Zone5Distance
		zone6[i] = row.Total.Zone6Distance
		xg[i] = row.TotalXG.InexactFloat64()
		maxDistance = max(maxDistance, zone5[i], zone6[i])
		maxXG = max(maxXG, xg[i])
	}

	distanceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}
	xgFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeMinuteValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Distance (m)",
			ValueFormatter: distanceFormatter,
			Range:          &chart.ContinuousRange{Min: 0, Max: maxDistance},
		},
		YAxisSecondary: chart.YAxis{
			Name:           "xG",
			ValueFormatter: xgFormatter,
			Range:          &chart.ContinuousRange{Min: 0, Max: maxXG},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Zone 5 distance",
				XValues: x,
				YValues: zone5,
			},
			chart.TimeSeries{
				Name:    "Zone 6 distance",
				XValues: x,
				YValues: zone6,
			},
			chart.TimeSeries{
				Name:    "TotalxG",
				XValues: x,
				YValues: xg,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}
