// internal/mapdata/builder.go

// Package mapdata assembles the map payloads consumed by the frontend
// map client. Layers are identified by name, never by position.
package mapdata

import (
	"disaster-eye-workers/internal/models"
)

// Layer names in the flood vulnerability payload.
const (
	LayerSatellite       = "Satellite"
	LayerFloodRisk       = "Flood Risk"
	LayerWaterOccurrence = "Water Occurrence"
	LayerElevation       = "Elevation"
)

// AnalysisFloodVulnerability tags payloads produced by the flood
// vulnerability workflow.
const AnalysisFloodVulnerability = "flood_vulnerability"

// ErrLoadLayersMessage is shown when an assembled payload fails
// validation and the map degrades to a marker.
const ErrLoadLayersMessage = "Could not load map layers. Please try again."

// DefaultZoom is the zoom level for analysis maps.
const DefaultZoom = 12

const (
	googleSatelliteURL = "https://mt1.google.com/vt/lyrs=s&x={x}&y={y}&z={z}"
	markerColor        = "red"
)

// DefaultCenter anchors payloads for turns that carry no coordinates.
var DefaultCenter = models.Coordinates{Lat: 11.0168, Lng: 76.9558}

// TestMapCenter is the country-level view used by the connectivity test map.
var TestMapCenter = models.Coordinates{Lat: 20.5937, Lng: 78.9629}

// TileURLs carries the rendered analysis layer endpoints.
type TileURLs struct {
	Flood     string
	Water     string
	Elevation string
}

// Complete reports whether every analysis layer has a tile endpoint.
func (t TileURLs) Complete() bool {
	return t.Flood != "" && t.Water != "" && t.Elevation != ""
}

// BuildFloodMap assembles the full flood vulnerability payload: the
// satellite base layer, the three analysis layers, and one marker at
// the analyzed point.
func BuildFloodMap(lat, lng float64, locationName string, tiles TileURLs) models.MapPayload {
	if locationName == "" {
		locationName = models.DefaultLocationLabel
	}
	minZoom, maxZoom := 0, 18

	return models.MapPayload{
		Center:   models.Coordinates{Lat: lat, Lng: lng},
		Zoom:     DefaultZoom,
		Analysis: AnalysisFloodVulnerability,
		Layers: []models.MapLayer{
			{
				Name:        LayerSatellite,
				URL:         googleSatelliteURL,
				Type:        "raster",
				Visible:     true,
				Opacity:     1.0,
				Attribution: "Google Satellite",
			},
			{
				Name:        LayerFloodRisk,
				URL:         tiles.Flood,
				Type:        "raster",
				Visible:     true,
				Opacity:     0.7,
				Attribution: "Google Earth Engine",
				MinZoom:     &minZoom,
				MaxZoom:     &maxZoom,
			},
			{
				Name:        LayerWaterOccurrence,
				URL:         tiles.Water,
				Type:        "raster",
				Visible:     true,
				Opacity:     0.5,
				Attribution: "JRC Global Surface Water",
				MinZoom:     &minZoom,
				MaxZoom:     &maxZoom,
			},
			{
				Name:        LayerElevation,
				URL:         tiles.Elevation,
				Type:        "raster",
				Visible:     true,
				Opacity:     0.6,
				Attribution: "SRTM Elevation",
				MinZoom:     &minZoom,
				MaxZoom:     &maxZoom,
			},
		},
		Markers: []models.Marker{
			{
				Position: models.Coordinates{Lat: lat, Lng: lng},
				Popup:    locationName,
				Color:    markerColor,
			},
		},
	}
}

// MissingCoordinatesMap is the synthetic payload for a turn that never
// resolved coordinates. It has no layers and no markers.
func MissingCoordinatesMap(errorMessage string) models.MapPayload {
	return models.MapPayload{
		Center: DefaultCenter,
		Zoom:   DefaultZoom,
		Error:  errorMessage,
	}
}

// MarkerOnlyMap is the degraded payload for a platform failure: the
// point marker plus explanatory error text.
func MarkerOnlyMap(lat, lng float64, locationName, errorMessage string) models.MapPayload {
	if locationName == "" {
		locationName = models.DefaultLocationLabel
	}
	return models.MapPayload{
		Center: models.Coordinates{Lat: lat, Lng: lng},
		Zoom:   DefaultZoom,
		Error:  errorMessage,
		Markers: []models.Marker{
			{
				Position: models.Coordinates{Lat: lat, Lng: lng},
				Popup:    locationName,
			},
		},
	}
}

// DefaultMap centers an empty payload, used when a turn produced no map.
func DefaultMap(center models.Coordinates) models.MapPayload {
	return models.MapPayload{Center: center, Zoom: DefaultZoom}
}

// BuildLiveLayersMap assembles the live flood hazard view.
func BuildLiveLayersMap(lat, lng float64, zoom int, floodURL, elevationURL string) models.MapPayload {
	return models.MapPayload{
		Center: models.Coordinates{Lat: lat, Lng: lng},
		Zoom:   zoom,
		Layers: []models.MapLayer{
			{
				Name:        "Flood Hazard (0-1m depth)",
				URL:         floodURL,
				Type:        "raster",
				Visible:     true,
				Opacity:     0.7,
				Attribution: "Google Earth Engine",
			},
			{
				Name:        "Elevation (m)",
				URL:         elevationURL,
				Type:        "raster",
				Visible:     true,
				Opacity:     0.6,
				Attribution: "SRTM Elevation",
			},
		},
		Markers: []models.Marker{
			{
				Position: models.Coordinates{Lat: lat, Lng: lng},
				Popup:    models.DefaultLocationLabel,
				Color:    markerColor,
			},
		},
	}
}

// BuildTestMap assembles the connectivity test payload over the
// country-level default view.
func BuildTestMap(waterURL string) models.MapPayload {
	return models.MapPayload{
		Center: TestMapCenter,
		Zoom:   5,
		Layers: []models.MapLayer{
			{
				Name:        LayerWaterOccurrence,
				URL:         waterURL,
				Type:        "raster",
				Visible:     true,
				Opacity:     0.7,
				Attribution: "JRC Global Surface Water",
			},
		},
		Markers: []models.Marker{
			{
				Position: TestMapCenter,
				Popup:    "Default Location",
				Color:    markerColor,
			},
		},
	}
}
