package geo

import (
	"math"

	"github.com/apexgrid/racedash/log"
)

// EarthRadiusM is the mean earth radius used for the flat-earth projection.
const EarthRadiusM = 6371000.0

// GeoPoint is a geodetic coordinate in degrees, altitude in meters.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Alt float64 `json:"alt"`
}

// LocalPoint is a position in the local tangent-plane frame, in meters
// (after scaling): X east, Y altitude, Z north.
type LocalPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Projector converts geodetic coordinates into a local Euclidean frame
// around a fixed reference point. The reference is set once per session;
// converting points under different references silently produces positions
// in incompatible frames, so configure it at startup from the track
// definition rather than from the first vehicle fix.
type Projector struct {
	lg     *log.Logger
	refLat float64
	refLon float64
	scale  float64
	hasRef bool
}

// NewProjector creates a Projector with no reference set and unit scale.
func NewProjector(lg *log.Logger) *Projector {
	return &Projector{lg: lg, scale: 1.0}
}

// SetReference fixes the projection origin and scale.
func (p *Projector) SetReference(lat, lon, scale float64) {
	p.refLat = lat
	p.refLon = lon
	if scale > 0 {
		p.scale = scale
	}
	p.hasRef = true
}

// SetReferenceFromCentroid sets the reference to the arithmetic mean of the
// given points, so a track is centered consistently regardless of which
// vehicle's fix arrives first. A nil or empty slice is a no-op.
func (p *Projector) SetReferenceFromCentroid(points []GeoPoint, scale float64) {
	if len(points) == 0 {
		return
	}
	var sumLat, sumLon float64
	for _, pt := range points {
		sumLat += pt.Lat
		sumLon += pt.Lon
	}
	n := float64(len(points))
	p.SetReference(sumLat/n, sumLon/n, scale)
}

// HasReference reports whether a reference has been established.
func (p *Projector) HasReference() bool { return p.hasRef }

// Reference returns the current reference point and scale.
func (p *Projector) Reference() (lat, lon, scale float64) {
	return p.refLat, p.refLon, p.scale
}

// ToLocal projects a geodetic coordinate into the local frame. The
// longitude scaling uses the cosine of the mean latitude between the input
// and the reference, which keeps east/west distances accurate at both ends
// of the interval rather than only near the origin.
//
// If no reference has been set, the first point seen becomes the reference
// and the zero LocalPoint is returned for that call; the first frame's true
// relative offset is lost, which is why the reference should normally be
// set explicitly at startup.
func (p *Projector) ToLocal(lat, lon, alt float64) LocalPoint {
	if !p.hasRef {
		p.SetReference(lat, lon, p.scale)
		p.lg.Warn("projection reference auto-established from first point; set it explicitly from the track definition",
			"lat", lat, "lon", lon)
		return LocalPoint{}
	}

	latRad := lat * math.Pi / 180
	lonRad := lon * math.Pi / 180
	refLatRad := p.refLat * math.Pi / 180
	refLonRad := p.refLon * math.Pi / 180
	meanLat := (latRad + refLatRad) / 2

	north := EarthRadiusM * (latRad - refLatRad)
	east := EarthRadiusM * math.Cos(meanLat) * (lonRad - refLonRad)

	return LocalPoint{
		X: east * p.scale,
		Y: alt * p.scale,
		Z: north * p.scale,
	}
}
