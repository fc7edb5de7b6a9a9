// internal/common/earthengine/service.go
package earthengine

import (
	"context"
	"fmt"
	"math"

	"disaster-eye-workers/internal/common/logger"
	"disaster-eye-workers/internal/models"
)

// Default analysis radii in meters.
const (
	DefaultFloodRadiusMeters    = 5000.0
	DefaultBuildingRadiusMeters = 2000.0

	// satelliteLayerBufferMeters bounds the optical composites used for
	// the visualization layers.
	satelliteLayerBufferMeters = 10000.0
)

// Visualization settings per layer.
var (
	floodHazardVis = VisParams{Min: 0, Max: 1, Palette: []string{"#ffffff", "#0000ff"}, Opacity: 0.7}

	terrainVis = VisParams{Min: 0, Max: 100, Palette: []string{"blue", "green", "brown", "white"}, Opacity: 0.6}

	waterOccurrenceVis = VisParams{Min: 0, Max: 100, Palette: []string{"#ffffff", "#0000ff"}, Opacity: 0.7}

	trueColorVis = VisParams{Bands: []string{"B4", "B3", "B2"}, Min: 0, Max: 3000, Gamma: 1.4}

	ndviVis = VisParams{Min: -1, Max: 1, Palette: []string{"blue", "white", "green"}}

	elevationRampVis = VisParams{Min: 0, Max: 1000, Palette: []string{"blue", "green", "yellow", "red"}}
)

var damageFactors = map[models.RiskLevel]float64{
	models.RiskHigh:   0.35,
	models.RiskMedium: 0.15,
	models.RiskLow:    0.05,
}

// ServiceConfig tunes the depth-index analysis.
type ServiceConfig struct {
	BufferMeters float64
	ScaleMeters  float64
}

// Service runs the geospatial analyses on top of the platform client.
type Service struct {
	client *Client
	config ServiceConfig
	logger logger.Logger
}

// NewService creates the analysis service.
func NewService(client *Client, cfg ServiceConfig, log logger.Logger) *Service {
	return &Service{
		client: client,
		config: cfg,
		logger: log.With(map[string]interface{}{"component": "geo-analysis"}),
	}
}

// Initialized reports whether the underlying client holds credentials.
func (s *Service) Initialized() bool {
	return s.client.Initialized()
}

// Healthy probes the platform.
func (s *Service) Healthy(ctx context.Context) error {
	return s.client.Healthy(ctx)
}

// FloodHazardData is the depth-index assessment plus its rendered layers.
type FloodHazardData struct {
	DepthIndex float64
	Flood      *MapRef
	Water      *MapRef
	Elevation  *MapRef
}

// FloodLayerSet is the rendered hazard, surface water and elevation layers
// around a point, without the depth statistics.
type FloodLayerSet struct {
	Flood     *MapRef
	Water     *MapRef
	Elevation *MapRef
}

// FloodDepthIndex samples the mean flood depth around a point at the
// configured zonal scale.
func (s *Service) FloodDepthIndex(ctx context.Context, lat, lng float64) (float64, error) {
	b := NewBuilder()
	region := BufferedPoint(b, lat, lng, s.bufferMeters())
	depth := FloodDepth(b, region)
	stats, err := s.client.ComputeDictionary(ctx, b.Expression(ReduceRegionMean(b, depth, region, s.scaleMeters())))
	if err != nil {
		return 0, fmt.Errorf("sample flood depth: %w", err)
	}
	// A region outside the hazard grid has no depth band and reads as zero.
	return stats["depth"], nil
}

// FloodLayers renders the hazard, surface water and elevation tile layers
// for a point. Tile tokens expire server-side, so layers are always
// rendered fresh even when the depth index comes from a cached assessment.
func (s *Service) FloodLayers(ctx context.Context, lat, lng float64) (*FloodLayerSet, error) {
	buffer := s.bufferMeters()

	flood, err := s.renderLayer(ctx, floodHazardVis, func(b *Builder) Ref {
		return FloodDepth(b, BufferedPoint(b, lat, lng, buffer))
	})
	if err != nil {
		return nil, fmt.Errorf("render flood layer: %w", err)
	}

	water, err := s.renderLayer(ctx, waterOccurrenceVis, func(b *Builder) Ref {
		return WaterOccurrence(b, BufferedPoint(b, lat, lng, buffer))
	})
	if err != nil {
		return nil, fmt.Errorf("render water occurrence layer: %w", err)
	}

	elevation, err := s.renderLayer(ctx, terrainVis, func(b *Builder) Ref {
		return Elevation(b, BufferedPoint(b, lat, lng, buffer))
	})
	if err != nil {
		return nil, fmt.Errorf("render elevation layer: %w", err)
	}

	return &FloodLayerSet{Flood: flood, Water: water, Elevation: elevation}, nil
}

// FloodHazard samples the mean flood depth index around a point and
// renders the hazard, surface water and elevation layers for it.
func (s *Service) FloodHazard(ctx context.Context, lat, lng float64) (*FloodHazardData, error) {
	depthIndex, err := s.FloodDepthIndex(ctx, lat, lng)
	if err != nil {
		return nil, err
	}

	layers, err := s.FloodLayers(ctx, lat, lng)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Flood hazard assessment completed", map[string]interface{}{
		"lat":        lat,
		"lng":        lng,
		"depthIndex": depthIndex,
	})

	return &FloodHazardData{
		DepthIndex: depthIndex,
		Flood:      layers.Flood,
		Water:      layers.Water,
		Elevation:  layers.Elevation,
	}, nil
}

// FloodAnalysis estimates flood coverage from recent SAR backscatter
// and classifies the result against the mean elevation.
func (s *Service) FloodAnalysis(ctx context.Context, lat, lng, radiusMeters float64) (*models.SARFloodAnalysis, error) {
	if radiusMeters <= 0 {
		radiusMeters = DefaultFloodRadiusMeters
	}

	b := NewBuilder()
	region := BufferedPoint(b, lat, lng, radiusMeters)
	sceneCount, err := s.client.ComputeNumber(ctx, b.Expression(SARSceneCount(b, region)))
	if err != nil {
		return nil, fmt.Errorf("count SAR scenes: %w", err)
	}

	floodPercentage := 0.0
	if sceneCount > 0 {
		b := NewBuilder()
		region := BufferedPoint(b, lat, lng, radiusMeters)
		mask := SARWaterMask(b, region)
		stats, err := s.client.ComputeDictionary(ctx, b.Expression(ReduceRegionMean(b, mask, region, 10)))
		if err != nil {
			return nil, fmt.Errorf("sample SAR water mask: %w", err)
		}
		floodPercentage = stats["VV"] * 100
	} else {
		s.logger.Warn("No SAR scenes found for flood analysis", map[string]interface{}{"lat": lat, "lng": lng})
	}

	b = NewBuilder()
	region = BufferedPoint(b, lat, lng, radiusMeters)
	elevationImage := Elevation(b, region)
	elevStats, err := s.client.ComputeDictionary(ctx, b.Expression(ReduceRegionMean(b, elevationImage, region, 30)))
	if err != nil {
		return nil, fmt.Errorf("sample elevation: %w", err)
	}
	averageElevation := elevStats["elevation"]

	s.logger.Info("SAR flood analysis completed", map[string]interface{}{
		"lat":             lat,
		"lng":             lng,
		"floodPercentage": floodPercentage,
	})

	return &models.SARFloodAnalysis{
		FloodPercentage:  round2(floodPercentage),
		AverageElevation: round2(averageElevation),
		RiskLevel:        sarRiskLevel(floodPercentage, averageElevation),
		Coordinates:      models.Coordinates{Lat: lat, Lng: lng},
		AnalysisRadius:   radiusMeters,
	}, nil
}

// BuildingAnalysis estimates built-up coverage from an optical composite
// and derives potential flood damage from the SAR risk tier.
func (s *Service) BuildingAnalysis(ctx context.Context, lat, lng, radiusMeters float64) (*models.BuildingAnalysis, error) {
	if radiusMeters <= 0 {
		radiusMeters = DefaultBuildingRadiusMeters
	}

	b := NewBuilder()
	region := BufferedPoint(b, lat, lng, radiusMeters)
	sceneCount, err := s.client.ComputeNumber(ctx, b.Expression(Sentinel2SceneCount(b, region)))
	if err != nil {
		return nil, fmt.Errorf("count optical scenes: %w", err)
	}

	builtUpPercentage := 0.0
	estimatedBuildings := 0
	damagedBuildings := 0

	if sceneCount > 0 {
		b := NewBuilder()
		region := BufferedPoint(b, lat, lng, radiusMeters)
		mask := BuiltUpMask(b, Sentinel2Composite(b, region))
		stats, err := s.client.ComputeDictionary(ctx, b.Expression(ReduceRegionMean(b, mask, region, 10)))
		if err != nil {
			return nil, fmt.Errorf("sample built-up mask: %w", err)
		}
		builtUpPercentage = stats["B11"] * 100

		// Rough building count from built-up coverage and radius.
		estimatedBuildings = int(builtUpPercentage * radiusMeters / 100)

		flood, err := s.FloodAnalysis(ctx, lat, lng, radiusMeters)
		if err != nil {
			return nil, fmt.Errorf("assess flood exposure: %w", err)
		}
		factor, ok := damageFactors[flood.RiskLevel]
		if !ok {
			factor = damageFactors[models.RiskLow]
		}
		damagedBuildings = int(float64(estimatedBuildings) * factor)
	} else {
		s.logger.Warn("No optical scenes found for building analysis", map[string]interface{}{"lat": lat, "lng": lng})
	}

	damagePercentage := float64(damagedBuildings) / math.Max(float64(estimatedBuildings), 1) * 100

	s.logger.Info("Building analysis completed", map[string]interface{}{
		"lat":            lat,
		"lng":            lng,
		"totalBuildings": estimatedBuildings,
	})

	return &models.BuildingAnalysis{
		TotalBuildings:    estimatedBuildings,
		DamagedBuildings:  damagedBuildings,
		BuiltUpPercentage: round2(builtUpPercentage),
		DamagePercentage:  round2(damagePercentage),
		Coordinates:       models.Coordinates{Lat: lat, Lng: lng},
	}, nil
}

// SatelliteLayers renders the true color, vegetation and elevation
// visualization layers around a point.
func (s *Service) SatelliteLayers(ctx context.Context, lat, lng float64) (map[string]*MapRef, error) {
	layers := make(map[string]*MapRef, 3)

	satellite, err := s.renderLayer(ctx, trueColorVis, func(b *Builder) Ref {
		return Sentinel2Composite(b, BufferedPoint(b, lat, lng, satelliteLayerBufferMeters))
	})
	if err != nil {
		return nil, fmt.Errorf("render true color layer: %w", err)
	}
	layers["satellite"] = satellite

	vegetation, err := s.renderLayer(ctx, ndviVis, func(b *Builder) Ref {
		return NDVI(b, Sentinel2Composite(b, BufferedPoint(b, lat, lng, satelliteLayerBufferMeters)))
	})
	if err != nil {
		return nil, fmt.Errorf("render vegetation layer: %w", err)
	}
	layers["vegetation"] = vegetation

	elevation, err := s.renderLayer(ctx, elevationRampVis, func(b *Builder) Ref {
		return b.Invoke("Image.load", Args{"id": DatasetElevation})
	})
	if err != nil {
		return nil, fmt.Errorf("render elevation layer: %w", err)
	}
	layers["elevation"] = elevation

	return layers, nil
}

// LiveLayerData pairs the hazard and terrain layers for live maps.
type LiveLayerData struct {
	Flood     *MapRef
	Elevation *MapRef
}

// LiveLayers renders the flood hazard and elevation layers around a point.
func (s *Service) LiveLayers(ctx context.Context, lat, lng float64) (*LiveLayerData, error) {
	buffer := s.bufferMeters()

	flood, err := s.renderLayer(ctx, floodHazardVis, func(b *Builder) Ref {
		return FloodDepth(b, BufferedPoint(b, lat, lng, buffer))
	})
	if err != nil {
		return nil, fmt.Errorf("render flood layer: %w", err)
	}

	elevation, err := s.renderLayer(ctx, terrainVis, func(b *Builder) Ref {
		return Elevation(b, BufferedPoint(b, lat, lng, buffer))
	})
	if err != nil {
		return nil, fmt.Errorf("render elevation layer: %w", err)
	}

	return &LiveLayerData{Flood: flood, Elevation: elevation}, nil
}

// TestMapLayer renders the global surface water occurrence layer used by
// the connectivity test map.
func (s *Service) TestMapLayer(ctx context.Context) (*MapRef, error) {
	return s.renderLayer(ctx, waterOccurrenceVis, func(b *Builder) Ref {
		collection := b.Invoke("ImageCollection.load", Args{"id": DatasetSurfaceWater})
		mosaic := b.Invoke("ImageCollection.mosaic", Args{"collection": collection})
		return b.Invoke("Image.select", Args{
			"input":         mosaic,
			"bandSelectors": []string{"occurrence"},
		})
	})
}

func (s *Service) renderLayer(ctx context.Context, vis VisParams, build func(b *Builder) Ref) (*MapRef, error) {
	b := NewBuilder()
	image := build(b)
	return s.client.CreateMap(ctx, b.Expression(Visualize(b, image, vis)))
}

func (s *Service) bufferMeters() float64 {
	if s.config.BufferMeters > 0 {
		return s.config.BufferMeters
	}
	return satelliteLayerBufferMeters
}

func (s *Service) scaleMeters() float64 {
	if s.config.ScaleMeters > 0 {
		return s.config.ScaleMeters
	}
	return 90
}

func sarRiskLevel(floodPercentage, averageElevation float64) models.RiskLevel {
	switch {
	case floodPercentage > 30 || averageElevation < 10:
		return models.RiskHigh
	case floodPercentage > 10 || averageElevation < 50:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
