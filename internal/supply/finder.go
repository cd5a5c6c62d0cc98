package supply

import (
	"sort"

	"github.com/sells-group/sitecheck/internal/geometry"
)

// Default ranking parameters.
const (
	DefaultK         = 5
	DefaultMaxRadius = 50000.0 // meters

	// travelSpeedKmh is the assumed road speed for travel time estimates.
	travelSpeedKmh = 40.0
)

// Proximity is one ranked supply site relative to a candidate location.
type Proximity struct {
	Site              Site    `json:"site"`
	DistanceMeters    float64 `json:"distance_meters"`
	TravelTimeMinutes float64 `json:"travel_time_minutes"`
}

// Finder ranks supply sites by haversine distance.
type Finder struct {
	K         int
	MaxRadius float64
}

// NewFinder creates a Finder with the given cap and radius; zero values take
// the defaults.
func NewFinder(k int, maxRadius float64) *Finder {
	if k <= 0 {
		k = DefaultK
	}
	if maxRadius <= 0 {
		maxRadius = DefaultMaxRadius
	}
	return &Finder{K: k, MaxRadius: maxRadius}
}

// Nearest returns up to K sites within MaxRadius of the location, closest
// first. Ties keep catalog order.
func (f *Finder) Nearest(lat, lon float64, sites []Site) []Proximity {
	var out []Proximity
	for _, s := range sites {
		d := geometry.Haversine(lat, lon, s.Lat, s.Lon)
		if d > f.MaxRadius {
			continue
		}
		out = append(out, Proximity{
			Site:              s,
			DistanceMeters:    d,
			TravelTimeMinutes: TravelTimeMinutes(d),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceMeters < out[j].DistanceMeters
	})

	if len(out) > f.K {
		out = out[:f.K]
	}
	return out
}

// TravelTimeMinutes estimates road travel time for a distance in meters.
func TravelTimeMinutes(distanceMeters float64) float64 {
	return distanceMeters / 1000 / travelSpeedKmh * 60
}
