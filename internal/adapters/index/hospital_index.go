package index

import (
	"math"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/carelink/er-routing/internal/domain/entities"
	"github.com/carelink/er-routing/pkg/geo"
)

const (
	tolerance   = 0.01
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
	earthRadius = 6371.0 // km
)

// NearbyHospital is a radius-query hit with its great-circle distance
type NearbyHospital struct {
	Record     *entities.HospitalRecord
	DistanceKm float64
}

type spatialItem struct {
	record *entities.HospitalRecord
	rect   *rtreego.Rect
}

func (si *spatialItem) Bounds() *rtreego.Rect {
	return si.rect
}

// HospitalIndex keeps one R-Tree per region so a directory refresh swaps a
// whole region atomically without disturbing the others.
type HospitalIndex struct {
	mu    sync.RWMutex
	trees map[string]*rtreego.Rtree
}

// NewHospitalIndex creates an empty spatial index
func NewHospitalIndex() *HospitalIndex {
	return &HospitalIndex{trees: make(map[string]*rtreego.Rtree)}
}

// ReplaceRegion rebuilds the tree for a region from a fresh record set
func (idx *HospitalIndex) ReplaceRegion(region string, records []*entities.HospitalRecord) {
	tree := rtreego.NewTree(dimensions, minChildren, maxChildren)
	for _, record := range records {
		if record == nil {
			continue
		}
		point := rtreego.Point{record.Location.Latitude, record.Location.Longitude}
		tree.Insert(&spatialItem{record: record, rect: point.ToRect(tolerance)})
	}

	idx.mu.Lock()
	idx.trees[region] = tree
	idx.mu.Unlock()
}

// Nearby returns the hospitals within radiusKm of the center, closest first
func (idx *HospitalIndex) Nearby(region string, lat, lon, radiusKm float64) []NearbyHospital {
	idx.mu.RLock()
	tree := idx.trees[region]
	idx.mu.RUnlock()

	if tree == nil {
		return nil
	}

	// Bounding box first, then exact haversine filtering. Longitude
	// degrees shrink by cos(lat), so the east-west half-width must widen
	// with latitude or edge-of-radius hospitals get cut from the box.
	latDeg := (radiusKm / earthRadius) * (180 / math.Pi)
	lonDeg := latDeg
	if cosLat := math.Cos(lat * math.Pi / 180); cosLat > 1e-6 {
		lonDeg = latDeg / cosLat
	}
	bounds, err := rtreego.NewRect(
		rtreego.Point{lat - latDeg, lon - lonDeg},
		[]float64{2 * latDeg, 2 * lonDeg},
	)
	if err != nil {
		return nil
	}

	results := tree.SearchIntersect(bounds)
	hits := make([]NearbyHospital, 0, len(results))
	for _, result := range results {
		item, ok := result.(*spatialItem)
		if !ok || item.record == nil {
			continue
		}
		dist := geo.DistanceKm(lat, lon, item.record.Location.Latitude, item.record.Location.Longitude)
		if dist <= radiusKm {
			hits = append(hits, NearbyHospital{Record: item.record, DistanceKm: dist})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].DistanceKm != hits[j].DistanceKm {
			return hits[i].DistanceKm < hits[j].DistanceKm
		}
		return hits[i].Record.ID < hits[j].Record.ID
	})
	return hits
}

// Size returns the number of indexed hospitals in a region
func (idx *HospitalIndex) Size(region string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if tree := idx.trees[region]; tree != nil {
		return tree.Size()
	}
	return 0
}
