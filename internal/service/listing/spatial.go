package listing

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/mekedron/grocer-cli/internal/domain"
)

const (
	indexDimensions  = 2
	indexMinChildren = 4
	indexMaxChildren = 16
	pointTolerance   = 1e-9
)

type indexedStore struct {
	position int
	store    domain.Store
	rect     *rtreego.Rect
}

func (s *indexedStore) Bounds() *rtreego.Rect {
	return s.rect
}

// Index answers radius queries over stores that have a location.
type Index struct {
	tree *rtreego.Rtree
	size int
}

// NewIndex indexes stores with a valid location. Other stores are skipped.
func NewIndex(stores []domain.Store) *Index {
	idx := &Index{tree: rtreego.NewTree(indexDimensions, indexMinChildren, indexMaxChildren)}
	for i, store := range stores {
		if store.Location == nil || store.Location.Validate() != nil {
			continue
		}
		point := rtreego.Point{store.Location.Lat, store.Location.Lon}
		idx.tree.Insert(&indexedStore{position: i, store: store, rect: point.ToRect(pointTolerance)})
		idx.size++
	}
	return idx
}

// Len returns the number of indexed stores.
func (idx *Index) Len() int {
	return idx.size
}

// Within returns stores no further than radiusMeters from center, in the
// order they were indexed.
func (idx *Index) Within(center domain.Coordinate, radiusMeters float64) []domain.Store {
	if idx.size == 0 || radiusMeters < 0 {
		return []domain.Store{}
	}

	latSpan := radiusMeters / EarthRadiusMeters * 180 / math.Pi
	lonSpan := 360.0
	if cos := math.Cos(radians(center.Lat)); cos > 1e-6 {
		lonSpan = math.Min(360, latSpan/cos)
	}
	bottomLat := math.Max(-90, center.Lat-latSpan)
	topLat := math.Min(90, center.Lat+latSpan)
	if topLat >= 90 || bottomLat <= -90 {
		lonSpan = 180
	}
	bottomLon := center.Lon - lonSpan
	if lonSpan >= 180 {
		bottomLon = -180
		lonSpan = 180
	}

	boxes := []struct{ lon, width float64 }{{bottomLon, 2 * lonSpan}}
	// split boxes that cross the antimeridian
	if bottomLon < -180 {
		boxes = []struct{ lon, width float64 }{
			{-180, center.Lon + lonSpan + 180},
			{bottomLon + 360, 180 - (bottomLon + 360)},
		}
	} else if bottomLon+2*lonSpan > 180 {
		boxes = []struct{ lon, width float64 }{
			{bottomLon, 180 - bottomLon},
			{-180, bottomLon + 2*lonSpan - 180},
		}
	}

	seen := map[int]struct{}{}
	matches := make([]*indexedStore, 0)
	for _, box := range boxes {
		rect, err := rtreego.NewRect(rtreego.Point{bottomLat, box.lon}, []float64{math.Max(topLat-bottomLat, pointTolerance), math.Max(box.width, pointTolerance)})
		if err != nil {
			continue
		}
		for _, hit := range idx.tree.SearchIntersect(rect) {
			item, ok := hit.(*indexedStore)
			if !ok {
				continue
			}
			if _, dup := seen[item.position]; dup {
				continue
			}
			seen[item.position] = struct{}{}
			if Distance(center, *item.store.Location) <= radiusMeters {
				matches = append(matches, item)
			}
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].position < matches[j].position
	})
	stores := make([]domain.Store, len(matches))
	for i, match := range matches {
		stores[i] = match.store
	}
	return stores
}
