package track

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON exports the centerline as a closed LineString feature in the
// original geodetic coordinates, for map embeds. Models built directly
// from local-frame points have no geodetic ring and return an empty
// feature collection.
func (m *Model) GeoJSON(name string) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	if len(m.geodetic) > 0 {
		ls := make(orb.LineString, 0, len(m.geodetic)+1)
		for _, pt := range m.geodetic {
			ls = append(ls, orb.Point{pt.Lon, pt.Lat})
		}
		// Close the ring explicitly so renderers draw the final segment.
		ls = append(ls, orb.Point{m.geodetic[0].Lon, m.geodetic[0].Lat})

		f := geojson.NewFeature(ls)
		f.Properties["name"] = name
		f.Properties["points"] = len(m.geodetic)
		fc.Append(f)
	}
	return fc.MarshalJSON()
}
