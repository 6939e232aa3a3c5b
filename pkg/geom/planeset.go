package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Default plane equality tolerances.
const (
	DefaultPlaneNormalEpsilon = 1e-6
	DefaultPlaneDistEpsilon   = 1e-4
)

// planeHashSize is the width of a distance bucket in world units.
const planeHashSize = 8.0

// PlaneSet is an append-only registry mapping planes to stable indices.
//
// Planes are stored in opposite pairs: for every index i, i^1 is the same
// plane facing the other way. The even member of a pair is the one whose
// dominant normal component is positive.
type PlaneSet struct {
	planes        []Plane
	buckets       map[int64][]int
	normalEpsilon float64
	distEpsilon   float64
}

// NewPlaneSet creates an empty set. Non-positive epsilons select the defaults.
func NewPlaneSet(normalEpsilon, distEpsilon float64) *PlaneSet {
	if normalEpsilon <= 0 {
		normalEpsilon = DefaultPlaneNormalEpsilon
	}
	if distEpsilon <= 0 {
		distEpsilon = DefaultPlaneDistEpsilon
	}
	return &PlaneSet{
		buckets:       make(map[int64][]int),
		normalEpsilon: normalEpsilon,
		distEpsilon:   distEpsilon,
	}
}

// Len returns the number of planes, always even.
func (s *PlaneSet) Len() int {
	return len(s.planes)
}

// Plane returns the plane at index i.
func (s *PlaneSet) Plane(i int) Plane {
	return s.planes[i]
}

// Planes returns the planes in index order. The slice must not be modified.
func (s *PlaneSet) Planes() []Plane {
	return s.planes
}

// Insert returns the index of the plane (normal, dist), adding it if no
// equivalent plane exists. It returns -1 for a zero normal.
func (s *PlaneSet) Insert(normal mgl64.Vec3, dist float64) int {
	p, ok := NewPlane(normal, dist)
	if !ok {
		return -1
	}
	return s.InsertPlane(p)
}

// InsertPlane inserts an already normalized plane.
func (s *PlaneSet) InsertPlane(p Plane) int {
	p = s.snap(p)
	if i := s.find(p); i >= 0 {
		return i
	}

	flipped := p.Flip()
	first, second := p, flipped
	if p.Normal[p.DominantAxis()] < 0 {
		first, second = flipped, p
	}

	base := len(s.planes)
	s.planes = append(s.planes, first, second)
	s.addToBucket(base)
	s.addToBucket(base + 1)

	if first == p {
		return base
	}
	return base + 1
}

// Equal reports whether two planes are equivalent within the set's tolerances.
func (s *PlaneSet) Equal(a, b Plane) bool {
	if math.Abs(a.Dist-b.Dist) > s.distEpsilon {
		return false
	}
	return 1-a.Normal.Dot(b.Normal) <= s.normalEpsilon
}

func (s *PlaneSet) find(p Plane) int {
	key := bucketKey(p.Dist)
	for k := key - 1; k <= key+1; k++ {
		for _, i := range s.buckets[k] {
			if s.Equal(s.planes[i], p) {
				return i
			}
		}
	}
	return -1
}

func (s *PlaneSet) addToBucket(i int) {
	key := bucketKey(s.planes[i].Dist)
	s.buckets[key] = append(s.buckets[key], i)
}

// snap makes nearly axial normals exactly axial and nearly integral
// distances integral.
func (s *PlaneSet) snap(p Plane) Plane {
	for i := 0; i < 3; i++ {
		if 1-math.Abs(p.Normal[i]) <= s.normalEpsilon {
			var n mgl64.Vec3
			if p.Normal[i] > 0 {
				n[i] = 1
			} else {
				n[i] = -1
			}
			p.Normal = n
			break
		}
	}
	if r := math.Round(p.Dist); math.Abs(p.Dist-r) <= s.distEpsilon {
		p.Dist = r
	}
	return p
}

func bucketKey(dist float64) int64 {
	return int64(math.Floor(dist / planeHashSize))
}
