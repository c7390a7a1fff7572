// Package geo holds the great-circle math used by the proximity filters.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// EarthRadiusKm is the mean Earth radius used for all distances.
const EarthRadiusKm = 6371.0

// orb sizes bounds with the equatorial radius, which is slightly larger than
// EarthRadiusKm; pad so the box never cuts off a point inside the circle.
const boundPadding = 1.01

// DistanceKm returns the great-circle distance between a and b using the
// spherical law of cosines. The acos argument is clamped to [-1, 1] so that
// antipodal points yield πR instead of NaN. The formula loses precision at
// short range (about 1e-4 km), so identical points return 0 directly.
func DistanceKm(a, b orb.Point) float64 {
	if a.Equal(b) {
		return 0
	}
	lat1, lat2 := radians(a.Lat()), radians(b.Lat())
	dLng := radians(b.Lon()) - radians(a.Lon())

	cos := math.Cos(lat1)*math.Cos(lat2)*math.Cos(dLng) + math.Sin(lat1)*math.Sin(lat2)
	return EarthRadiusKm * math.Acos(clamp(cos, -1, 1))
}

// Within reports whether p lies at most radiusKm from center.
func Within(center, p orb.Point, radiusKm float64) bool {
	return DistanceKm(center, p) <= radiusKm
}

// Bound returns a lat/lng box containing every point within radiusKm of
// center. ok is false when the box cannot be expressed as two BETWEEN ranges
// (it wraps the antimeridian), in which case callers should skip the prefilter.
func Bound(center orb.Point, radiusKm float64) (orb.Bound, bool) {
	b := geo.NewBoundAroundPoint(center, radiusKm*1000*boundPadding)
	for _, v := range []float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return orb.Bound{}, false
		}
	}
	if b.Min.Lat() < -90 || b.Max.Lat() > 90 || b.Min.Lon() < -180 || b.Max.Lon() > 180 {
		return orb.Bound{}, false
	}
	// A box wrapped across the antimeridian comes back with Min east of Max.
	if b.Min.Lon() > b.Max.Lon() || b.Min.Lat() > b.Max.Lat() {
		return orb.Bound{}, false
	}
	return b, true
}

// ValidPoint reports whether lat and lng are finite and inside their ranges.
func ValidPoint(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
