package roof

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ToFeatureCollection converts an analysis result into a GeoJSON
// FeatureCollection in raster pixel space, one polygon feature per panel and
// per obstruction. The rendering layer draws these directly over the imagery
// crop, so no geodesic back-projection is performed here.
func (r *Result) ToFeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for i := range r.Panels {
		p := &r.Panels[i]
		f := geojson.NewFeature(closedPolygon(p.Polygon))
		f.ID = p.ID
		f.Properties = geojson.Properties{
			"type":        "panel",
			"facetId":     p.FacetID,
			"row":         p.Row,
			"col":         p.Col,
			"widthM":      p.WidthM,
			"heightM":     p.HeightM,
			"pitchDeg":    p.Pitch,
			"azimuthDeg":  p.Azimuth,
			"avgSlopeDeg": p.AvgSlopeDeg,
		}
		fc.Append(f)
	}

	for i := range r.Obstructions {
		o := &r.Obstructions[i]
		f := geojson.NewFeature(closedPolygon(o.Polygon))
		f.ID = o.ID
		f.Properties = geojson.Properties{
			"type":         "obstruction",
			"facetId":      o.FacetID,
			"kind":         string(o.Kind),
			"localDevDeg":  o.LocalDeviationDeg,
			"globalDevDeg": o.GlobalDeviationDeg,
		}
		fc.Append(f)
	}

	return fc
}

// closedPolygon wraps a ring into an orb.Polygon, closing it if needed.
// GeoJSON requires the first and last positions to coincide.
func closedPolygon(ring orb.Ring) orb.Polygon {
	if len(ring) == 0 {
		return orb.Polygon{}
	}
	if ring[0] != ring[len(ring)-1] {
		closed := make(orb.Ring, len(ring)+1)
		copy(closed, ring)
		closed[len(ring)] = ring[0]
		ring = closed
	}
	return orb.Polygon{ring}
}
