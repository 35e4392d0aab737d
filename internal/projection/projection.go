// Package projection maps GPS fixes onto pitch-centred metric coordinates.
package projection

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

const earthRadiusM = 6371000

// Stadium is a pitch centre and the counter-clockwise rotation in degrees
// that aligns the pitch with the x axis.
type Stadium struct {
	Name     string
	Lat      float64
	Lon      float64
	Rotation float64
}

var stadiums = map[string]Stadium{
	"teddy":                 {Lat: 31.75123, Lon: 35.19078, Rotation: 12},
	"sammy_ofer_before_nov": {Lat: 32.783085, Lon: 34.965336},
	"sammy_ofer_after_nov":  {Lat: 32.783053, Lon: 34.965294},
	"green_before_nov":      {Lat: 32.6901365, Lon: 35.311345},
	"green_after_nov":       {Lat: 32.69006, Lon: 35.31129},
	"acre":                  {Lat: 32.90788, Lon: 35.086034, Rotation: 345},
	"ashdod":                {Lat: 31.81041417, Lon: 34.64833117, Rotation: 3},
	"terner":                {Lat: 31.27339317, Lon: 34.77953383, Rotation: 354},
	"netanya":               {Lat: 32.29449983, Lon: 34.864548},
	"moshava":               {Lat: 32.10424417, Lon: 34.86504433, Rotation: 343},
	"doha":                  {Lat: 32.866708, Lon: 35.310823, Rotation: 356},
	"bloomfield":            {Lat: 32.051753, Lon: 34.761550, Rotation: 14},
}

// Lookup returns a stadium from the static table by name.
func Lookup(name string) (Stadium, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	st, ok := stadiums[key]
	if !ok {
		return Stadium{}, fmt.Errorf("unknown stadium %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	st.Name = key
	return st, nil
}

// Names lists the known stadiums in sorted order.
func Names() []string {
	names := make([]string, 0, len(stadiums))
	for name := range stadiums {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Project returns the position in metres east (x) and north (y) of the pitch
// centre, rotated by the stadium rotation.
func Project(lat, lon float64, st Stadium) (x, y float64) {
	latRad, lonRad := toRad(lat), toRad(lon)
	lat0, lon0 := toRad(st.Lat), toRad(st.Lon)

	x = earthRadiusM * (lonRad - lon0) * math.Cos((latRad+lat0)/2)
	y = earthRadiusM * (latRad - lat0)
	if st.Rotation == 0 {
		return x, y
	}
	theta := toRad(st.Rotation)
	cos, sin := math.Cos(theta), math.Sin(theta)
	return x*cos - y*sin, y*cos + x*sin
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
