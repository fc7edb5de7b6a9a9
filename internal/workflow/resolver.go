// internal/workflow/resolver.go
package workflow

import (
	"context"

	"disaster-eye-workers/internal/common/geocode"
	"disaster-eye-workers/internal/common/logger"
	"disaster-eye-workers/internal/models"
)

// GeocodeResolver resolves place names through a geocoder. Country biasing
// and caching are concerns of the geocoder itself.
type GeocodeResolver struct {
	geocoder geocode.Geocoder
	logger   logger.Logger
}

// NewGeocodeResolver creates a location resolver backed by the given
// geocoder.
func NewGeocodeResolver(geocoder geocode.Geocoder, log logger.Logger) *GeocodeResolver {
	return &GeocodeResolver{
		geocoder: geocoder,
		logger:   log.With(map[string]interface{}{"component": "location-resolver"}),
	}
}

// Resolve looks a location up. A miss returns (nil, nil).
func (r *GeocodeResolver) Resolve(ctx context.Context, location string) (*models.Coordinates, error) {
	result, err := r.geocoder.Forward(ctx, location)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	r.logger.Info("Located place", map[string]interface{}{
		"location": location,
		"lat":      result.Lat,
		"lng":      result.Lng,
	})
	return &models.Coordinates{Lat: result.Lat, Lng: result.Lng}, nil
}
