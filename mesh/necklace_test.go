package mesh

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// torus 顶点/三角形数量随细分参数线性变化
func torusVertexCount(p NecklaceParams) int   { return p.Segments * p.Sides }
func torusTriangleCount(p NecklaceParams) int { return 2 * p.Segments * p.Sides }

func sphereVertexCount() int   { return 2 + (beadStacks-1)*beadSlices }
func sphereTriangleCount() int { return 2 * beadSlices * (beadStacks - 1) }

func TestNecklaceCounts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*NecklaceParams)
	}{
		{"defaults", nil},
		{"no beads", func(p *NecklaceParams) { p.Beads = 0 }},
		{"coarse band", func(p *NecklaceParams) { p.Segments = 8; p.Sides = 3 }},
		{"many beads", func(p *NecklaceParams) { p.Beads = 64 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultNecklaceParams()
			if tt.mutate != nil {
				tt.mutate(&p)
			}

			m, err := Necklace(p)
			require.NoError(t, err)

			wantV := torusVertexCount(p) + p.Beads*sphereVertexCount()
			wantT := torusTriangleCount(p) + p.Beads*sphereTriangleCount()
			assert.Equal(t, wantV, len(m.Vertices))
			assert.Equal(t, wantV, len(m.Normals))
			assert.Equal(t, wantT, len(m.Triangles))
		})
	}
}

func TestNecklaceIndicesInRange(t *testing.T) {
	m, err := Necklace(DefaultNecklaceParams())
	require.NoError(t, err)

	for _, tri := range m.Triangles {
		for _, i := range tri {
			require.GreaterOrEqual(t, i, 0)
			require.Less(t, i, len(m.Vertices))
		}
	}
}

func TestNecklaceNormalsUnitLength(t *testing.T) {
	p := DefaultNecklaceParams()
	p.Segments = 16
	p.Sides = 8
	m, err := Necklace(p)
	require.NoError(t, err)

	for i, n := range m.Normals {
		l := math.Sqrt(n.X*n.X + n.Y*n.Y + n.Z*n.Z)
		require.InDelta(t, 1.0, l, 1e-9, "normal %d", i)
	}
}

func TestNecklaceBeadsOnBandCircle(t *testing.T) {
	p := DefaultNecklaceParams()
	p.Beads = 4
	m, err := Necklace(p)
	require.NoError(t, err)

	// 珠心应落在中心线圆上：每个珠子的顶点包围盒中心距原点约等于 Radius
	beadStart := torusVertexCount(p)
	perBead := sphereVertexCount()
	for b := 0; b < p.Beads; b++ {
		var sum Vec3
		for i := 0; i < perBead; i++ {
			sum = sum.add(m.Vertices[beadStart+b*perBead+i])
		}
		c := sum.scale(1 / float64(perBead))
		dist := math.Sqrt(c.X*c.X + c.Z*c.Z)
		assert.InDelta(t, p.Radius, dist, 0.5)
		assert.InDelta(t, 0, c.Y, 0.5)
	}
}

func TestNecklaceParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*NecklaceParams)
		wantErr string
	}{
		{"negative radius", func(p *NecklaceParams) { p.Radius = -1 }, "radius"},
		{"zero thickness", func(p *NecklaceParams) { p.Thickness = 0 }, "thickness"},
		{"thickness exceeds radius", func(p *NecklaceParams) { p.Thickness = p.Radius }, "thickness"},
		{"negative beads", func(p *NecklaceParams) { p.Beads = -1 }, "beads"},
		{"too many beads", func(p *NecklaceParams) { p.Beads = 129 }, "beads"},
		{"zero bead radius with beads", func(p *NecklaceParams) { p.BeadRadius = 0 }, "beadRadius"},
		{"segments too low", func(p *NecklaceParams) { p.Segments = 7 }, "segments"},
		{"segments too high", func(p *NecklaceParams) { p.Segments = 513 }, "segments"},
		{"sides too low", func(p *NecklaceParams) { p.Sides = 2 }, "sides"},
		{"sides too high", func(p *NecklaceParams) { p.Sides = 65 }, "sides"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultNecklaceParams()
			tt.mutate(&p)

			_, err := Necklace(p)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.NoError(t, DefaultNecklaceParams().Validate())
}
