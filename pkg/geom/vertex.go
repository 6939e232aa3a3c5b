package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MeshVertex is a renderable vertex: position, texture coordinate and normal.
type MeshVertex struct {
	XYZ    mgl64.Vec3
	ST     mgl64.Vec2
	Normal mgl64.Vec3
}

// LerpVertex interpolates all vertex attributes; the normal is renormalized.
func LerpVertex(a, b MeshVertex, t float64) MeshVertex {
	v := MeshVertex{
		XYZ: a.XYZ.Add(b.XYZ.Sub(a.XYZ).Mul(t)),
		ST:  a.ST.Add(b.ST.Sub(a.ST).Mul(t)),
	}
	n := a.Normal.Add(b.Normal.Sub(a.Normal).Mul(t))
	if n.Len() > 0 {
		n = n.Normalize()
	}
	v.Normal = n
	return v
}

// VertexKey is a quantized vertex used for exact-match deduplication.
type VertexKey struct {
	XYZ    [3]int64
	ST     [2]int64
	Normal [3]int64
}

// Quantizer converts vertices to keys at fixed resolutions.
type Quantizer struct {
	XYZ    float64 // grid size for positions
	ST     float64 // grid size for texture coordinates
	Normal float64 // grid size for normal components
}

// DefaultQuantizer matches the precision of the compiler's epsilons.
var DefaultQuantizer = Quantizer{
	XYZ:    1.0 / 128,
	ST:     1.0 / 4096,
	Normal: 1.0 / 256,
}

// Key returns the quantized key of v.
func (q Quantizer) Key(v MeshVertex) VertexKey {
	var k VertexKey
	for i := 0; i < 3; i++ {
		k.XYZ[i] = quantize(v.XYZ[i], q.XYZ)
		k.Normal[i] = quantize(v.Normal[i], q.Normal)
	}
	k.ST[0] = quantize(v.ST[0], q.ST)
	k.ST[1] = quantize(v.ST[1], q.ST)
	return k
}

// PositionKey returns the quantized position only.
func (q Quantizer) PositionKey(p mgl64.Vec3) [3]int64 {
	return [3]int64{quantize(p[0], q.XYZ), quantize(p[1], q.XYZ), quantize(p[2], q.XYZ)}
}

func quantize(v, grid float64) int64 {
	if grid <= 0 {
		return int64(math.Float64bits(v))
	}
	return int64(math.Round(v / grid))
}

// TriangleArea returns the area of the triangle abc.
func TriangleArea(a, b, c mgl64.Vec3) float64 {
	return b.Sub(a).Cross(c.Sub(a)).Len() * 0.5
}
