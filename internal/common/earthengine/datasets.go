// internal/common/earthengine/datasets.go
package earthengine

// Dataset identifiers used by the flood and building analyses.
const (
	DatasetFloodHazard  = "JRC/CEMS_GLOFAS/FloodHazard/v1"
	DatasetElevation    = "USGS/SRTMGL1_003"
	DatasetSurfaceWater = "JRC/GSW1_4/GlobalSurfaceWater"
	DatasetSentinel1    = "COPERNICUS/S1_GRD"
	DatasetSentinel2    = "COPERNICUS/S2_SR"
)

// Imagery window for the Sentinel collections.
const (
	imageryWindowStart = "2023-01-01"
	imageryWindowEnd   = "2024-12-31"
)

// SARWaterThresholdDB is the VV backscatter threshold below which a
// pixel is treated as open water.
const SARWaterThresholdDB = -15.0

// VisParams are visualization settings applied when rendering an image
// to tiles.
type VisParams struct {
	Bands   []string
	Min     float64
	Max     float64
	Gamma   float64
	Opacity float64
	Palette []string
}

// BufferedPoint adds a point buffered by radiusMeters.
func BufferedPoint(b *Builder, lat, lng, radiusMeters float64) Ref {
	point := b.Invoke("GeometryConstructors.Point", Args{
		"coordinates": []float64{lng, lat},
	})
	return b.Invoke("Geometry.buffer", Args{
		"geometry": point,
		"distance": radiusMeters,
	})
}

// FloodDepth adds the global flood hazard depth mosaic clipped to region.
func FloodDepth(b *Builder, region Ref) Ref {
	collection := b.Invoke("ImageCollection.load", Args{"id": DatasetFloodHazard})
	mosaic := b.Invoke("ImageCollection.mosaic", Args{"collection": collection})
	depth := b.Invoke("Image.select", Args{
		"input":         mosaic,
		"bandSelectors": []string{"depth"},
	})
	return b.Invoke("Image.clip", Args{"input": depth, "geometry": region})
}

// WaterOccurrence adds the surface water occurrence mosaic clipped to region.
func WaterOccurrence(b *Builder, region Ref) Ref {
	collection := b.Invoke("ImageCollection.load", Args{"id": DatasetSurfaceWater})
	mosaic := b.Invoke("ImageCollection.mosaic", Args{"collection": collection})
	occurrence := b.Invoke("Image.select", Args{
		"input":         mosaic,
		"bandSelectors": []string{"occurrence"},
	})
	return b.Invoke("Image.clip", Args{"input": occurrence, "geometry": region})
}

// Elevation adds the SRTM elevation band clipped to region.
func Elevation(b *Builder, region Ref) Ref {
	image := b.Invoke("Image.load", Args{"id": DatasetElevation})
	elevation := b.Invoke("Image.select", Args{
		"input":         image,
		"bandSelectors": []string{"elevation"},
	})
	return b.Invoke("Image.clip", Args{"input": elevation, "geometry": region})
}

// sentinel1Scenes adds the filtered SAR collection over region.
func sentinel1Scenes(b *Builder, region Ref) Ref {
	collection := b.Invoke("ImageCollection.load", Args{"id": DatasetSentinel1})
	collection = filterBounds(b, collection, region)
	collection = filterDate(b, collection)
	return b.Invoke("Collection.filter", Args{
		"collection": collection,
		"filter": b.Invoke("Filter.equals", Args{
			"leftField":  "instrumentMode",
			"rightValue": "IW",
		}),
	})
}

// SARWaterMask adds a water mask from the most recent SAR scene: VV
// backscatter below the threshold marks open water. The mask keeps the
// VV band name, so region means come back under the "VV" key.
func SARWaterMask(b *Builder, region Ref) Ref {
	scenes := sentinel1Scenes(b, region)
	sorted := b.Invoke("Collection.sort", Args{
		"collection": scenes,
		"property":   "system:time_start",
		"ascending":  false,
	})
	recent := b.Invoke("Collection.first", Args{"collection": sorted})
	vv := b.Invoke("Image.select", Args{
		"input":         recent,
		"bandSelectors": []string{"VV"},
	})
	threshold := b.Invoke("Image.constant", Args{"value": SARWaterThresholdDB})
	return b.Invoke("Image.lt", Args{"image1": vv, "image2": threshold})
}

// SARSceneCount adds the size of the filtered SAR collection.
func SARSceneCount(b *Builder, region Ref) Ref {
	return b.Invoke("Collection.size", Args{"collection": sentinel1Scenes(b, region)})
}

// sentinel2Scenes adds the cloud-filtered optical collection over region.
func sentinel2Scenes(b *Builder, region Ref) Ref {
	collection := b.Invoke("ImageCollection.load", Args{"id": DatasetSentinel2})
	collection = filterBounds(b, collection, region)
	collection = filterDate(b, collection)
	return b.Invoke("Collection.filter", Args{
		"collection": collection,
		"filter": b.Invoke("Filter.lessThan", Args{
			"leftField":  "CLOUDY_PIXEL_PERCENTAGE",
			"rightValue": 20,
		}),
	})
}

// Sentinel2Composite adds a median composite of the filtered optical
// collection.
func Sentinel2Composite(b *Builder, region Ref) Ref {
	return b.Invoke("ImageCollection.median", Args{"collection": sentinel2Scenes(b, region)})
}

// Sentinel2SceneCount adds the size of the filtered optical collection.
func Sentinel2SceneCount(b *Builder, region Ref) Ref {
	return b.Invoke("Collection.size", Args{"collection": sentinel2Scenes(b, region)})
}

// BuiltUpMask adds an NDBI threshold mask over a composite. NDBI is
// (SWIR - NIR) / (SWIR + NIR); the quotient keeps the SWIR band name,
// so region means come back under the "B11" key.
func BuiltUpMask(b *Builder, composite Ref) Ref {
	nir := b.Invoke("Image.select", Args{
		"input":         composite,
		"bandSelectors": []string{"B8"},
	})
	swir := b.Invoke("Image.select", Args{
		"input":         composite,
		"bandSelectors": []string{"B11"},
	})
	diff := b.Invoke("Image.subtract", Args{"image1": swir, "image2": nir})
	sum := b.Invoke("Image.add", Args{"image1": swir, "image2": nir})
	ndbi := b.Invoke("Image.divide", Args{"image1": diff, "image2": sum})
	threshold := b.Invoke("Image.constant", Args{"value": 0.1})
	return b.Invoke("Image.gt", Args{"image1": ndbi, "image2": threshold})
}

// NDVI adds a normalized difference vegetation index over a composite.
func NDVI(b *Builder, composite Ref) Ref {
	return b.Invoke("Image.normalizedDifference", Args{
		"input":     composite,
		"bandNames": []string{"B8", "B4"},
	})
}

// Visualize adds a rendering of image with the given settings.
func Visualize(b *Builder, image Ref, vis VisParams) Ref {
	args := Args{
		"image": image,
		"min":   vis.Min,
		"max":   vis.Max,
	}
	if len(vis.Bands) > 0 {
		args["bands"] = vis.Bands
	}
	if vis.Gamma > 0 {
		args["gamma"] = vis.Gamma
	}
	if vis.Opacity > 0 {
		args["opacity"] = vis.Opacity
	}
	if len(vis.Palette) > 0 {
		args["palette"] = vis.Palette
	}
	return b.Invoke("Image.visualize", args)
}

// ReduceRegionMean adds a mean reduction of image over region at the
// given scale in meters.
func ReduceRegionMean(b *Builder, image, region Ref, scaleMeters float64) Ref {
	return b.Invoke("Image.reduceRegion", Args{
		"image":     image,
		"reducer":   b.Invoke("Reducer.mean", Args{}),
		"geometry":  region,
		"scale":     scaleMeters,
		"maxPixels": 1e9,
	})
}

func filterBounds(b *Builder, collection, region Ref) Ref {
	return b.Invoke("Collection.filter", Args{
		"collection": collection,
		"filter": b.Invoke("Filter.intersects", Args{
			"leftField":  ".all",
			"rightValue": region,
		}),
	})
}

func filterDate(b *Builder, collection Ref) Ref {
	return b.Invoke("Collection.filter", Args{
		"collection": collection,
		"filter": b.Invoke("Filter.date", Args{
			"start": imageryWindowStart,
			"end":   imageryWindowEnd,
		}),
	})
}
