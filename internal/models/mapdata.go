// internal/models/mapdata.go
package models

// Coordinates is a WGS84 point. JSON keys follow the map client's contract.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// MapLayer is one tile layer in a map payload. Layers are identified by Name;
// consumers must never rely on slice position.
type MapLayer struct {
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	Type        string  `json:"type"` // "raster"
	Visible     bool    `json:"visible"`
	Opacity     float64 `json:"opacity"`
	Attribution string  `json:"attribution"`
	MinZoom     *int    `json:"minZoom,omitempty"`
	MaxZoom     *int    `json:"maxZoom,omitempty"`
}

// Marker is a point annotation with a popup label.
type Marker struct {
	Position Coordinates `json:"position"`
	Popup    string      `json:"popup"`
	Color    string      `json:"color,omitempty"`
}

// MapPayload describes a renderable map: center, zoom, named tile layers and
// markers. Error carries human-readable failure text on degraded payloads.
type MapPayload struct {
	Center   Coordinates `json:"center"`
	Zoom     int         `json:"zoom"`
	Analysis string      `json:"analysis,omitempty"`
	Layers   []MapLayer  `json:"layers,omitempty"`
	Markers  []Marker    `json:"markers,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// Layer looks a layer up by name.
func (p *MapPayload) Layer(name string) (MapLayer, bool) {
	for _, l := range p.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return MapLayer{}, false
}

// Clone returns a deep copy of the payload.
func (p MapPayload) Clone() MapPayload {
	out := p
	if p.Layers != nil {
		out.Layers = make([]MapLayer, len(p.Layers))
		copy(out.Layers, p.Layers)
		for i, l := range p.Layers {
			if l.MinZoom != nil {
				v := *l.MinZoom
				out.Layers[i].MinZoom = &v
			}
			if l.MaxZoom != nil {
				v := *l.MaxZoom
				out.Layers[i].MaxZoom = &v
			}
		}
	}
	if p.Markers != nil {
		out.Markers = make([]Marker, len(p.Markers))
		copy(out.Markers, p.Markers)
	}
	return out
}
