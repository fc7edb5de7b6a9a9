// internal/workflow/producer.go
package workflow

import (
	"context"
	"fmt"

	"disaster-eye-workers/internal/common/earthengine"
	"disaster-eye-workers/internal/common/logger"
	"disaster-eye-workers/internal/mapdata"
	"disaster-eye-workers/internal/models"
	"disaster-eye-workers/internal/report"
)

// HazardAnalyzer is the slice of the geospatial service the producer uses.
type HazardAnalyzer interface {
	FloodHazard(ctx context.Context, lat, lng float64) (*earthengine.FloodHazardData, error)
}

// FloodAnalysisProducer renders the flood hazard narrative and map payload
// for resolved coordinates. It never returns an error: platform failures
// degrade to a marker-only map with explanatory text.
type FloodAnalysisProducer struct {
	analyzer HazardAnalyzer
	logger   logger.Logger
}

// NewFloodAnalysisProducer creates a producer on top of the geospatial
// service.
func NewFloodAnalysisProducer(analyzer HazardAnalyzer, log logger.Logger) *FloodAnalysisProducer {
	return &FloodAnalysisProducer{
		analyzer: analyzer,
		logger:   log.With(map[string]interface{}{"component": "flood-producer"}),
	}
}

// Produce runs the flood hazard analysis and assembles the response payload.
func (p *FloodAnalysisProducer) Produce(ctx context.Context, lat, lng float64, locationName string) (string, models.MapPayload) {
	label := locationName
	if label == "" {
		label = models.DefaultLocationLabel
	}

	data, err := p.analyzer.FloodHazard(ctx, lat, lng)
	if err != nil {
		summary := fmt.Sprintf("Basic map for (%v, %v). Error in flood analysis: %v", lat, lng, err)
		p.logger.Error("Flood analysis failed", map[string]interface{}{
			"lat":   lat,
			"lng":   lng,
			"error": err.Error(),
		})
		return summary, mapdata.MarkerOnlyMap(lat, lng, label, mapdata.ErrLoadLayersMessage)
	}

	summary := report.Assessment(label, lat, lng, data.DepthIndex)

	payload := mapdata.BuildFloodMap(lat, lng, label, mapdata.TileURLs{
		Flood:     data.Flood.TileURL,
		Water:     data.Water.TileURL,
		Elevation: data.Elevation.TileURL,
	})
	if err := mapdata.Validate(payload); err != nil {
		p.logger.Error("Map payload failed validation", map[string]interface{}{
			"error": err.Error(),
		})
		return summary, mapdata.MarkerOnlyMap(lat, lng, label, mapdata.ErrLoadLayersMessage)
	}

	p.logger.Info("Flood vulnerability analysis completed", map[string]interface{}{
		"location":   label,
		"depthIndex": data.DepthIndex,
	})
	return summary, payload
}
