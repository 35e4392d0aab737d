// Package lineup reconstructs starting lineups and substitutions from the
// distance each player covers.
package lineup

import (
	"cmp"
	"math"
	"slices"
	"time"

	"matchfeatures/internal/telemetry"
)

const earthRadiusKM = 6371

// Haversine returns the great-circle distance in kilometres between two
// points given in decimal degrees.
func Haversine(lon1, lat1, lon2, lat2 float64) float64 {
	lon1, lat1, lon2, lat2 = rad(lon1), rad(lat1), rad(lon2), rad(lat2)
	dlon := lon2 - lon1
	dlat := lat2 - lat1
	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dlon/2), 2)
	return 2 * math.Asin(math.Sqrt(a)) * earthRadiusKM
}

func rad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Fix is one position report of a player.
type Fix struct {
	PlayerID string
	Time     time.Time
	Lat      float64
	Lon      float64
}

// FixesFromSamples keeps the first sample with a fix of every step for one
// player.
func FixesFromSamples(playerID string, samples []telemetry.Sample, step time.Duration) []Fix {
	fixes := make([]Fix, 0, len(samples)/100+1)
	var last time.Time
	for _, s := range samples {
		if !s.HasFix() {
			continue
		}
		slot := s.Time
		if step > 0 {
			slot = s.Time.Truncate(step)
		}
		if len(fixes) > 0 && slot.Equal(last) {
			continue
		}
		last = slot
		fixes = append(fixes, Fix{PlayerID: playerID, Time: s.Time, Lat: s.Lat, Lon: s.Lon})
	}
	return fixes
}

// Ranked is a player's distance in one bucket.
type Ranked struct {
	PlayerID string
	Distance float64
}

// Bucket holds the distance ranking of one time bucket, longest first.
type Bucket struct {
	Start   time.Time
	Ranking []Ranked
}

// Top returns the ids of the first n ranked players.
func (b Bucket) Top(n int) []string {
	n = min(n, len(b.Ranking))
	ids := make([]string, n)
	for i := range n {
		ids[i] = b.Ranking[i].PlayerID
	}
	return ids
}

// BucketDistances splits fixes into contiguous buckets aligned to multiples
// of size, from the bucket of the first fix to the bucket of the last one.
// Buckets without data are kept with an empty ranking. A player needs two
// fixes in a bucket to be ranked; ties are broken by player id.
func BucketDistances(fixes []Fix, size time.Duration) []Bucket {
	if len(fixes) == 0 || size <= 0 {
		return nil
	}

	sorted := slices.Clone(fixes)
	slices.SortStableFunc(sorted, func(a, b Fix) int {
		if c := cmp.Compare(a.PlayerID, b.PlayerID); c != 0 {
			return c
		}
		return a.Time.Compare(b.Time)
	})

	first, last := sorted[0].Time, sorted[0].Time
	for _, f := range sorted {
		if f.Time.Before(first) {
			first = f.Time
		}
		if f.Time.After(last) {
			last = f.Time
		}
	}
	origin := first.Truncate(size)
	n := int(last.Truncate(size).Sub(origin)/size) + 1

	type acc struct {
		count    int
		distance float64
		prev     Fix
	}
	perBucket := make([]map[string]*acc, n)
	for _, f := range sorted {
		idx := int(f.Time.Truncate(size).Sub(origin) / size)
		if perBucket[idx] == nil {
			perBucket[idx] = make(map[string]*acc)
		}
		a, ok := perBucket[idx][f.PlayerID]
		if !ok {
			a = &acc{}
			perBucket[idx][f.PlayerID] = a
		}
		if a.count > 0 {
			a.distance += Haversine(a.prev.Lon, a.prev.Lat, f.Lon, f.Lat)
		}
		a.count++
		a.prev = f
	}

	buckets := make([]Bucket, n)
	for i := range buckets {
		buckets[i].Start = origin.Add(time.Duration(i) * size)
		for id, a := range perBucket[i] {
			if a.count < 2 {
				continue
			}
			buckets[i].Ranking = append(buckets[i].Ranking, Ranked{PlayerID: id, Distance: a.distance})
		}
		slices.SortFunc(buckets[i].Ranking, func(a, b Ranked) int {
			if c := cmp.Compare(b.Distance, a.Distance); c != 0 {
				return c
			}
			return cmp.Compare(a.PlayerID, b.PlayerID)
		})
	}
	return buckets
}

// FindLineup returns the sorted top-size players of the first window.
func FindLineup(fixes []Fix, window time.Duration, size int) []string {
	buckets := BucketDistances(fixes, window)
	if len(buckets) == 0 {
		return nil
	}
	lineup := buckets[0].Top(size)
	slices.Sort(lineup)
	return lineup
}
