package app

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rs/zerolog"

	"matchfeatures/internal/config"
	"matchfeatures/internal/matchmeta"
	"matchfeatures/internal/notify"
	"matchfeatures/internal/service"
	"matchfeatures/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Stdout io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger(), Stdout: os.Stdout}
}

// ExtractOptions configure the batch extraction.
type ExtractOptions struct {
	Season  string
	Matches []string
	Workers int
	DryRun  bool
}

// LineupOptions configure the lineup command.
type LineupOptions struct {
	Match string
}

// SimulateOptions configure the expected-points simulation.
type SimulateOptions struct {
	Match     string
	Season    string
	Standings string
	Model     string
}

// DatasetOptions configure the season dataset build.
type DatasetOptions struct {
	Root       string
	HalvesPath string
	FullPath   string
	Team       string
}

// ProjectOptions configure the frame projection.
type ProjectOptions struct {
	Match   string
	Players []string
	From    string
	To      string
	Output  string
}

// ExportOptions hold parameters for charting a match.
type ExportOptions struct {
	Match     string
	PNGPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Match   string
	CSVPath string
}

func (a *App) newNotifier() notify.Notifier {
	if a.Config.Notify.Telegram.Enabled {
		cfg := a.Config.Notify.Telegram
		return notify.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (storage.FeatureStore, func(), error) {
	store, err := storage.Open(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return nil, nil, nil
	}
	return store, store.Close, nil
}

func (a *App) loadCatalog() (*matchmeta.Catalog, error) {
	catalog, err := matchmeta.LoadFile(a.Config.Paths.MetadataFile)
	if err != nil {
		return nil, fmt.Errorf("load match metadata: %w", err)
	}
	return catalog, nil
}

func (a *App) season(date time.Time) string {
	return matchmeta.Season(date, a.Config.Season.Prefix, a.Config.Season.StartMonth)
}

// resolveMatch accepts either a match folder path or a bare match id.
func (a *App) resolveMatch(arg string) (service.Match, error) {
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		id := filepath.Base(filepath.Clean(arg))
		date, err := matchmeta.MatchDate(id)
		if err != nil {
			return service.Match{}, err
		}
		return service.Match{ID: id, Season: a.season(date), Dir: arg}, nil
	}

	date, err := matchmeta.MatchDate(arg)
	if err != nil {
		return service.Match{}, err
	}
	season := a.season(date)
	return service.Match{ID: arg, Season: season, Dir: filepath.Join(a.Config.Paths.GPSRoot, season, arg)}, nil
}

// discoverMatches lists gps_root/<season>/<match> folders in name order.
func (a *App) discoverMatches(season string) ([]service.Match, error) {
	root := a.Config.Paths.GPSRoot
	seasons := []string{season}
	if season == "" {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("list gps root: %w", err)
		}
		seasons = seasons[:0]
		for _, e := range entries {
			if e.IsDir() {
				seasons = append(seasons, e.Name())
			}
		}
	}

	var matches []service.Match
	for _, s := range seasons {
		entries, err := os.ReadDir(filepath.Join(root, s))
		if err != nil {
			return nil, fmt.Errorf("list season %s: %w", s, err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if _, err := matchmeta.MatchDate(e.Name()); err != nil {
				a.Logger.Warn().Str("dir", e.Name()).Msg("folder is not a match; skipped")
				continue
			}
			matches = append(matches, service.Match{ID: e.Name(), Season: s, Dir: filepath.Join(root, s, e.Name())})
		}
	}
	slices.SortFunc(matches, func(x, y service.Match) int {
		return cmp.Or(strings.Compare(x.Season, y.Season), strings.Compare(x.ID, y.ID))
	})
	return matches, nil
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
