package projection

import (
	"cmp"
	"encoding/csv"
	"io"
	"slices"
	"strconv"
	"time"

	"matchfeatures/internal/telemetry"
)

const frameTimeLayout = "2006-01-02 15:04:05.000"

// Frame is one projected position of a player, at most one per second.
type Frame struct {
	Player      string
	Time        time.Time
	RoundedTime time.Time
	Lat         float64
	Lon         float64
	Speed       float64
	X           float64
	Y           float64
}

// Window optionally restricts frames to the open range (From, To).
type Window struct {
	From *time.Time
	To   *time.Time
}

func (w Window) allows(t time.Time) bool {
	if w.From != nil && !t.After(*w.From) {
		return false
	}
	if w.To != nil && !t.Before(*w.To) {
		return false
	}
	return true
}

// Frames projects a player's samples, keeping the first sample with a fix of
// each second.
func Frames(player string, samples []telemetry.Sample, st Stadium, w Window) []Frame {
	var frames []Frame
	var last time.Time
	for _, s := range samples {
		if !s.HasFix() || !w.allows(s.Time) {
			continue
		}
		rounded := s.Time.Truncate(time.Second)
		if len(frames) > 0 && rounded.Equal(last) {
			continue
		}
		last = rounded
		x, y := Project(s.Lat, s.Lon, st)
		frames = append(frames, Frame{
			Player: player, Time: s.Time, RoundedTime: rounded,
			Lat: s.Lat, Lon: s.Lon, Speed: s.Speed, X: x, Y: y,
		})
	}
	return frames
}

// SortFrames orders frames by rounded time, then player.
func SortFrames(frames []Frame) {
	slices.SortStableFunc(frames, func(a, b Frame) int {
		if c := a.RoundedTime.Compare(b.RoundedTime); c != 0 {
			return c
		}
		return cmp.Compare(a.Player, b.Player)
	})
}

// WriteFrames encodes frames as CSV.
func WriteFrames(w io.Writer, frames []Frame) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Player", "Time", "RoundedTime", "Lat", "Lon", "Speed", "X", "Y"}); err != nil {
		return err
	}
	for _, f := range frames {
		record := []string{
			f.Player,
			f.Time.Format(frameTimeLayout),
			f.RoundedTime.Format(time.DateTime),
			strconv.FormatFloat(f.Lat, 'f', -1, 64),
			strconv.FormatFloat(f.Lon, 'f', -1, 64),
			strconv.FormatFloat(f.Speed, 'f', -1, 64),
			strconv.FormatFloat(f.X, 'f', 3, 64),
			strconv.FormatFloat(f.Y, 'f', 3, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
