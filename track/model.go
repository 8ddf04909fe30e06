package track

import (
	"math"
	"sync"

	"github.com/apexgrid/racedash/geo"
)

// Lock is the result of snapping a raw point onto the centerline:
// the nearest on-track position, the heading implied by the winning
// segment, and the planar distance from the raw point.
type Lock struct {
	Position geo.LocalPoint
	Heading  float64
	Segment  int
	Distance float64
}

// Model is the track centerline as a closed polyline in the local frame.
// It is built once per session and read-only thereafter.
type Model struct {
	geodetic []geo.GeoPoint
	points   []geo.LocalPoint
}

// NewModel converts a geodetic point sequence into the local frame using
// the given projector. The projector's reference must already be set (the
// engine sets it from the centerline centroid before building).
func NewModel(p *geo.Projector, points []geo.GeoPoint) *Model {
	m := &Model{
		geodetic: append([]geo.GeoPoint(nil), points...),
		points:   make([]geo.LocalPoint, 0, len(points)),
	}
	for _, pt := range points {
		m.points = append(m.points, p.ToLocal(pt.Lat, pt.Lon, pt.Alt))
	}
	return m
}

// newModelFromLocal builds a Model directly from local-frame points.
// Used by tests that want exact Euclidean geometry.
func newModelFromLocal(points []geo.LocalPoint) *Model {
	return &Model{points: append([]geo.LocalPoint(nil), points...)}
}

// Len returns the number of centerline points.
func (m *Model) Len() int { return len(m.points) }

// Points returns a copy of the local-frame centerline.
func (m *Model) Points() []geo.LocalPoint {
	return append([]geo.LocalPoint(nil), m.points...)
}

// Locate snaps a raw point onto the nearest point of the centerline,
// scanning all N segments including the closing one (last point back to
// the first). Projection is planar: the vertical axis is ignored for the
// distance test and the input altitude is preserved in the result.
func (m *Model) Locate(p geo.LocalPoint) Lock {
	lock, _ := m.locate(p)
	return lock
}

// Progress returns (segmentIndex + t) / N as a [0,1) proxy for the
// fraction of the lap completed. This assumes roughly equal segment
// lengths; it is not true arc-length progress.
func (m *Model) Progress(p geo.LocalPoint) float64 {
	if len(m.points) < 2 {
		return 0
	}
	lock, t := m.locate(p)
	return (float64(lock.Segment) + t) / float64(len(m.points))
}

func (m *Model) locate(p geo.LocalPoint) (Lock, float64) {
	n := len(m.points)
	switch n {
	case 0:
		return Lock{Position: p, Segment: -1}, 0
	case 1:
		v := m.points[0]
		v.Y = p.Y
		return Lock{Position: v, Segment: 0, Distance: planarDist(p, m.points[0])}, 0
	}

	best := Lock{Segment: -1, Distance: math.MaxFloat64}
	bestT := 0.0
	for i := 0; i < n; i++ {
		start := m.points[i]
		end := m.points[(i+1)%n] // modulo wrap closes the loop

		dx := end.X - start.X
		dz := end.Z - start.Z
		den := dx*dx + dz*dz

		t := 0.0
		if den > 0 {
			t = ((p.X-start.X)*dx + (p.Z-start.Z)*dz) / den
			if t < 0 {
				t = 0
			} else if t > 1 {
				t = 1
			}
		}

		closest := geo.LocalPoint{X: start.X + t*dx, Y: p.Y, Z: start.Z + t*dz}
		d := planarDist(p, closest)
		// A point exactly on a vertex ties between the incoming segment
		// (t=1) and the outgoing one (t=0); it belongs to the outgoing
		// segment so the derived heading points down the track.
		if d < best.Distance || (d == best.Distance && t == 0 && bestT == 1) {
			best = Lock{
				Position: closest,
				Heading:  math.Atan2(dx, dz),
				Segment:  i,
				Distance: d,
			}
			bestT = t
		}
	}
	return best, bestT
}

func planarDist(a, b geo.LocalPoint) float64 {
	return math.Hypot(a.X-b.X, a.Z-b.Z)
}

// Cache gives build-once semantics for the track model: repeated Build
// calls return the cached model until Invalidate.
type Cache struct {
	mu    sync.Mutex
	proj  *geo.Projector
	model *Model
}

// NewCache creates a Cache building against the given projector.
func NewCache(p *geo.Projector) *Cache {
	return &Cache{proj: p}
}

// Build returns the cached model, constructing it on first call.
func (c *Cache) Build(points []geo.GeoPoint) *Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == nil {
		c.model = NewModel(c.proj, points)
	}
	return c.model
}

// Invalidate discards the cached model so the next Build reconstructs it.
// Only needed if the underlying track definition changes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = nil
}
