// Package rtree implements an R-Tree index of mapped GeoJSON features with
// goroutine-based parallel querying over longitude partitions
package rtree

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dhconnelly/rtreego"
	"github.com/kass/geojson-rdf/pkg/geojson"
	"github.com/kass/geojson-rdf/pkg/geometry"
	"github.com/kass/geojson-rdf/pkg/models"
)

const (
	tolerance   = 0.01
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
	earthRadius = 6371.0 // km
)

// spatialFeature wraps a feature and its parsed geometry to implement rtreego.Spatial
type spatialFeature struct {
	*models.Feature
	geom geometry.Geometry
	env  geometry.Envelope
	rect *rtreego.Rect
	seq  int64
}

func (sf *spatialFeature) Bounds() *rtreego.Rect {
	return sf.rect
}

// FeatureIndex represents a thread-safe R-Tree based index of features
type FeatureIndex struct {
	// Partitioned trees for parallel query execution
	partitions    []*rtreego.Rtree
	numPartitions int
	mu            sync.RWMutex
	itemCount     atomic.Int64

	// Partition bounds for efficient query routing
	partitionBounds []models.BoundingBox

	byURI map[string]*spatialFeature
	seq   int64
}

// NewFeatureIndex creates a new feature index with CPU-aware partitioning
func NewFeatureIndex() *FeatureIndex {
	return NewFeatureIndexWithPartitions(runtime.NumCPU())
}

// NewFeatureIndexWithPartitions creates a new feature index with the given partition count
func NewFeatureIndexWithPartitions(numPartitions int) *FeatureIndex {
	if numPartitions <= 0 {
		numPartitions = runtime.NumCPU()
	}

	partitions := make([]*rtreego.Rtree, numPartitions)
	partitionBounds := make([]models.BoundingBox, numPartitions)

	// Create partitions based on longitude bands
	lonRange := 360.0 / float64(numPartitions)
	for i := 0; i < numPartitions; i++ {
		partitions[i] = rtreego.NewTree(dimensions, minChildren, maxChildren)

		minLon := -180.0 + float64(i)*lonRange
		maxLon := minLon + lonRange
		if i == numPartitions-1 {
			maxLon = 180.0 // Ensure last partition covers all remaining space
		}

		partitionBounds[i] = models.BoundingBox{
			BottomLeft: models.Location{Lat: -90, Lon: minLon},
			TopRight:   models.Location{Lat: 90, Lon: maxLon},
		}
	}

	return &FeatureIndex{
		partitions:      partitions,
		numPartitions:   numPartitions,
		partitionBounds: partitionBounds,
		byURI:           make(map[string]*spatialFeature),
	}
}

// IndexFeatures reads the geometry of every feature and inserts it into each
// partition its envelope touches. Features with an empty geometry are skipped.
// A feature whose URI is already indexed replaces the previous entry.
func (fi *FeatureIndex) IndexFeatures(features []*models.Feature) error {
	if len(features) == 0 {
		return nil
	}

	// Parse outside the lock, group by partition
	partitioned := make([][]*spatialFeature, fi.numPartitions)
	items := make([]*spatialFeature, 0, len(features))
	for _, f := range features {
		if f == nil {
			continue
		}
		lit, err := geojson.Read(f.GeoJSON)
		if err != nil {
			return fmt.Errorf("failed to read geometry of %s: %w", f.URI, err)
		}
		env, ok := geometry.EnvelopeOf(lit.Geometry)
		if !ok {
			continue
		}
		rect, err := rectOf(env)
		if err != nil {
			return fmt.Errorf("failed to build bounds of %s: %w", f.URI, err)
		}
		items = append(items, &spatialFeature{Feature: f, geom: lit.Geometry, env: env, rect: rect})
	}

	fi.mu.Lock()
	defer fi.mu.Unlock()

	inserted := fi.seq
	for _, item := range items {
		// entries from this batch are not in the trees yet
		if old, ok := fi.byURI[item.URI]; ok && old.seq <= inserted {
			for _, idx := range fi.partitionsFor(old.env.MinX, old.env.MaxX) {
				fi.partitions[idx].Delete(old)
			}
		}
		fi.seq++
		item.seq = fi.seq
		fi.byURI[item.URI] = item
	}
	for _, item := range items {
		if fi.byURI[item.URI] != item {
			continue
		}
		for _, idx := range fi.partitionsFor(item.env.MinX, item.env.MaxX) {
			partitioned[idx] = append(partitioned[idx], item)
		}
	}

	// Insert into partitions in parallel
	var wg sync.WaitGroup
	for i := 0; i < fi.numPartitions; i++ {
		if len(partitioned[i]) == 0 {
			continue
		}

		wg.Add(1)
		go func(partitionIdx int, items []*spatialFeature) {
			defer wg.Done()

			// Each partition can be updated independently
			for _, item := range items {
				fi.partitions[partitionIdx].Insert(item)
			}
		}(i, partitioned[i])
	}

	wg.Wait()
	fi.itemCount.Store(int64(len(fi.byURI)))
	return nil
}

// QueryBox returns all features whose envelope intersects the bounding box
func (fi *FeatureIndex) QueryBox(box models.BoundingBox) ([]*models.Feature, error) {
	bounds, err := rectFromBox(box)
	if err != nil {
		return nil, fmt.Errorf("failed to build query bounds: %w", err)
	}
	query := envelopeOf(box)

	fi.mu.RLock()
	defer fi.mu.RUnlock()

	items := fi.search(query, bounds, func(item *spatialFeature) bool {
		return item.env.Intersects(query)
	})
	return features(items), nil
}

// QueryRadius returns all features within radiusKm of center. The distance
// is measured from center to the closest point of the feature envelope.
func (fi *FeatureIndex) QueryRadius(center models.Location, radiusKm float64) ([]*models.Feature, error) {
	// Convert radius to degrees (approximate), widening longitude away from the equator
	latDeg := (radiusKm / earthRadius) * (180 / math.Pi)
	lonDeg := 180.0
	if c := math.Cos(center.Lat * math.Pi / 180); c > 1e-6 {
		lonDeg = math.Min(latDeg/c, 180)
	}

	box := models.BoundingBox{
		BottomLeft: models.Location{Lat: math.Max(center.Lat-latDeg, -90), Lon: center.Lon - lonDeg},
		TopRight:   models.Location{Lat: math.Min(center.Lat+latDeg, 90), Lon: center.Lon + lonDeg},
	}
	bounds, err := rectFromBox(box)
	if err != nil {
		return nil, fmt.Errorf("failed to build query bounds: %w", err)
	}

	fi.mu.RLock()
	defer fi.mu.RUnlock()

	items := fi.search(envelopeOf(box), bounds, func(item *spatialFeature) bool {
		return distanceTo(item, center) <= radiusKm
	})
	return features(items), nil
}

// NearestNeighbors returns the n features closest to center, nearest first
func (fi *FeatureIndex) NearestNeighbors(center models.Location, n int) []*models.Feature {
	if n <= 0 {
		return nil
	}

	fi.mu.RLock()
	defer fi.mu.RUnlock()

	type nearestResult struct {
		item     *spatialFeature
		distance float64
	}

	// Search all partitions in parallel
	resultsChan := make(chan []nearestResult, fi.numPartitions)

	for i := 0; i < fi.numPartitions; i++ {
		go func(idx int) {
			queryPoint := rtreego.Point{center.Lon, center.Lat}
			// Get more candidates than needed from each partition
			results := fi.partitions[idx].NearestNeighbors(n*2, queryPoint)

			nearestResults := make([]nearestResult, 0, len(results))
			for _, result := range results {
				item, ok := result.(*spatialFeature)
				if !ok || item == nil {
					continue
				}
				nearestResults = append(nearestResults, nearestResult{
					item:     item,
					distance: distanceTo(item, center),
				})
			}

			resultsChan <- nearestResults
		}(i)
	}

	// Collect all results, a feature may sit in several partitions
	seen := make(map[*spatialFeature]bool)
	var allResults []nearestResult
	for i := 0; i < fi.numPartitions; i++ {
		for _, r := range <-resultsChan {
			if seen[r.item] {
				continue
			}
			seen[r.item] = true
			allResults = append(allResults, r)
		}
	}

	sort.Slice(allResults, func(i, j int) bool {
		if allResults[i].distance != allResults[j].distance {
			return allResults[i].distance < allResults[j].distance
		}
		return allResults[i].item.seq < allResults[j].item.seq
	})

	resultCount := min(n, len(allResults))
	out := make([]*models.Feature, resultCount)
	for i := 0; i < resultCount; i++ {
		out[i] = allResults[i].item.Feature
	}
	return out
}

// Contains returns the features whose geometry contains loc
func (fi *FeatureIndex) Contains(loc models.Location) []*models.Feature {
	rect := rtreego.Point{loc.Lon, loc.Lat}.ToRect(tolerance)
	query := geometry.Envelope{MinX: loc.Lon, MinY: loc.Lat, MaxX: loc.Lon, MaxY: loc.Lat}

	fi.mu.RLock()
	defer fi.mu.RUnlock()

	items := fi.search(query, rect, func(item *spatialFeature) bool {
		return item.env.ContainsXY(loc.Lon, loc.Lat) && geometry.Contains(item.geom, loc.Lon, loc.Lat)
	})
	return features(items)
}

// Get returns the indexed feature with the given URI
func (fi *FeatureIndex) Get(uri string) (*models.Feature, bool) {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	item, ok := fi.byURI[uri]
	if !ok {
		return nil, false
	}
	return item.Feature, true
}

// Features returns every indexed feature in insertion order
func (fi *FeatureIndex) Features() []*models.Feature {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	items := make([]*spatialFeature, 0, len(fi.byURI))
	for _, item := range fi.byURI {
		items = append(items, item)
	}
	return features(items)
}

// Count returns the number of indexed features
func (fi *FeatureIndex) Count() int64 {
	return fi.itemCount.Load()
}

// Clear removes all features from the index
func (fi *FeatureIndex) Clear() {
	fi.mu.Lock()
	defer fi.mu.Unlock()

	for i := 0; i < fi.numPartitions; i++ {
		fi.partitions[i] = rtreego.NewTree(dimensions, minChildren, maxChildren)
	}
	fi.byURI = make(map[string]*spatialFeature)
	fi.itemCount.Store(0)
}

// search runs the rtree lookup on every partition the query touches in
// parallel and returns the de-duplicated items accepted by keep. Callers
// hold the read lock.
func (fi *FeatureIndex) search(query geometry.Envelope, bounds *rtreego.Rect, keep func(*spatialFeature) bool) []*spatialFeature {
	relevant := fi.partitionsFor(query.MinX, query.MaxX)
	resultsChan := make(chan []*spatialFeature, len(relevant))

	for _, partitionIdx := range relevant {
		go func(idx int) {
			results := fi.partitions[idx].SearchIntersect(bounds)

			items := make([]*spatialFeature, 0, len(results))
			for _, result := range results {
				item, ok := result.(*spatialFeature)
				if !ok || item == nil || !keep(item) {
					continue
				}
				items = append(items, item)
			}
			resultsChan <- items
		}(partitionIdx)
	}

	seen := make(map[*spatialFeature]bool)
	var all []*spatialFeature
	for i := 0; i < len(relevant); i++ {
		for _, item := range <-resultsChan {
			if !seen[item] {
				seen[item] = true
				all = append(all, item)
			}
		}
	}
	return all
}

// partitionsFor returns the indices of partitions whose longitude band
// intersects [minLon, maxLon]
func (fi *FeatureIndex) partitionsFor(minLon, maxLon float64) []int {
	var relevant []int
	for i, bounds := range fi.partitionBounds {
		if minLon <= bounds.TopRight.Lon && maxLon >= bounds.BottomLeft.Lon {
			relevant = append(relevant, i)
		}
	}
	// Coordinates outside [-180, 180] fall into the edge partitions
	if len(relevant) == 0 {
		if maxLon < -180 {
			relevant = append(relevant, 0)
		} else {
			relevant = append(relevant, fi.numPartitions-1)
		}
	}
	return relevant
}

func distanceTo(item *spatialFeature, center models.Location) float64 {
	lon, lat := item.env.Clamp(center.Lon, center.Lat)
	return geometry.Distance(center.Lon, center.Lat, lon, lat)
}

// features returns the feature rows of items in insertion order
func features(items []*spatialFeature) []*models.Feature {
	sort.Slice(items, func(i, j int) bool { return items[i].seq < items[j].seq })
	out := make([]*models.Feature, len(items))
	for i, item := range items {
		out[i] = item.Feature
	}
	return out
}

// rectOf converts an envelope into rtree bounds. Degenerate sides are
// padded so that points and axis-parallel lines stay searchable.
func rectOf(env geometry.Envelope) (*rtreego.Rect, error) {
	if env.MinX == env.MaxX && env.MinY == env.MaxY {
		return rtreego.Point{env.MinX, env.MinY}.ToRect(tolerance), nil
	}
	return rtreego.NewRect(
		rtreego.Point{env.MinX, env.MinY},
		[]float64{math.Max(env.MaxX-env.MinX, tolerance), math.Max(env.MaxY-env.MinY, tolerance)},
	)
}

func rectFromBox(box models.BoundingBox) (*rtreego.Rect, error) {
	return rectOf(envelopeOf(box))
}

func envelopeOf(box models.BoundingBox) geometry.Envelope {
	return geometry.Envelope{
		MinX: box.BottomLeft.Lon,
		MinY: box.BottomLeft.Lat,
		MaxX: box.TopRight.Lon,
		MaxY: box.TopRight.Lat,
	}
}
