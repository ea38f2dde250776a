package mesh

import (
	"fmt"
	"math"
)

// =============================================================================
// 💎 项链网格生成
// =============================================================================

// Vec3 模型空间中的点或方向
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) normalize() Vec3 {
	l := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if l == 0 {
		return Vec3{}
	}
	return v.scale(1 / l)
}

// Mesh 带逐顶点法线的索引三角网格
type Mesh struct {
	Vertices  []Vec3
	Normals   []Vec3
	Triangles [][3]int
}

// append 合并另一个网格，索引整体偏移
func (m *Mesh) append(o *Mesh) {
	base := len(m.Vertices)
	m.Vertices = append(m.Vertices, o.Vertices...)
	m.Normals = append(m.Normals, o.Normals...)
	for _, t := range o.Triangles {
		m.Triangles = append(m.Triangles, [3]int{t[0] + base, t[1] + base, t[2] + base})
	}
}

// NecklaceParams 控制生成的项链几何。
// 链体是 XZ 平面内的环面（Y 轴朝上），珠子沿链体中心线等角距分布。
type NecklaceParams struct {
	// Radius 项链主半径（环中心线半径，单位 mm）
	Radius float64 `json:"radius"`
	// Thickness 链体管径
	Thickness float64 `json:"thickness"`
	// Beads 珠子数量，0 表示光环
	Beads int `json:"beads"`
	// BeadRadius 珠子半径
	BeadRadius float64 `json:"beadRadius"`
	// Segments 主环细分段数
	Segments int `json:"segments"`
	// Sides 管截面细分边数
	Sides int `json:"sides"`
}

// DefaultNecklaceParams 返回可打印的默认参数（直径 9cm 的素链）
func DefaultNecklaceParams() NecklaceParams {
	return NecklaceParams{
		Radius:     45,
		Thickness:  1.5,
		Beads:      12,
		BeadRadius: 3,
		Segments:   96,
		Sides:      16,
	}
}

// Validate 校验参数的几何合法性
func (p NecklaceParams) Validate() error {
	if p.Radius <= 0 {
		return fmt.Errorf("radius must be positive")
	}
	if p.Thickness <= 0 {
		return fmt.Errorf("thickness must be positive")
	}
	if p.Thickness >= p.Radius {
		return fmt.Errorf("thickness must be smaller than radius")
	}
	if p.Beads < 0 || p.Beads > 128 {
		return fmt.Errorf("beads must be between 0 and 128")
	}
	if p.Beads > 0 && p.BeadRadius <= 0 {
		return fmt.Errorf("beadRadius must be positive when beads > 0")
	}
	if p.Segments < 8 || p.Segments > 512 {
		return fmt.Errorf("segments must be between 8 and 512")
	}
	if p.Sides < 3 || p.Sides > 64 {
		return fmt.Errorf("sides must be between 3 and 64")
	}
	return nil
}

// 珠子球面细分固定取值：打印足够平滑，文件体积可控
const (
	beadSlices = 16
	beadStacks = 8
)

// Necklace 按参数生成项链网格
func Necklace(p NecklaceParams) (*Mesh, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	m := torus(p.Radius, p.Thickness, p.Segments, p.Sides)

	for i := 0; i < p.Beads; i++ {
		theta := 2 * math.Pi * float64(i) / float64(p.Beads)
		center := Vec3{
			X: p.Radius * math.Cos(theta),
			Y: 0,
			Z: p.Radius * math.Sin(theta),
		}
		m.append(sphere(center, p.BeadRadius, beadSlices, beadStacks))
	}

	return m, nil
}

// torus 在 XZ 平面内构建主半径 R、管径 r 的环面
func torus(R, r float64, segments, sides int) *Mesh {
	m := &Mesh{
		Vertices:  make([]Vec3, 0, segments*sides),
		Normals:   make([]Vec3, 0, segments*sides),
		Triangles: make([][3]int, 0, 2*segments*sides),
	}

	for i := 0; i < segments; i++ {
		u := 2 * math.Pi * float64(i) / float64(segments)
		cu, su := math.Cos(u), math.Sin(u)
		for j := 0; j < sides; j++ {
			v := 2 * math.Pi * float64(j) / float64(sides)
			cv, sv := math.Cos(v), math.Sin(v)

			m.Vertices = append(m.Vertices, Vec3{
				X: (R + r*cv) * cu,
				Y: r * sv,
				Z: (R + r*cv) * su,
			})
			m.Normals = append(m.Normals, Vec3{X: cv * cu, Y: sv, Z: cv * su})
		}
	}

	idx := func(i, j int) int {
		return (i%segments)*sides + (j % sides)
	}
	for i := 0; i < segments; i++ {
		for j := 0; j < sides; j++ {
			a := idx(i, j)
			b := idx(i+1, j)
			c := idx(i+1, j+1)
			d := idx(i, j+1)
			m.Triangles = append(m.Triangles, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}

	return m
}

// sphere 构建 UV 球，两极使用独立顶点，避免极点处的退化三角形
func sphere(center Vec3, r float64, slices, stacks int) *Mesh {
	m := &Mesh{}

	// 北极点
	m.Vertices = append(m.Vertices, center.add(Vec3{Y: r}))
	m.Normals = append(m.Normals, Vec3{Y: 1})

	// 中间纬度环
	for st := 1; st < stacks; st++ {
		phi := math.Pi * float64(st) / float64(stacks)
		sp, cp := math.Sin(phi), math.Cos(phi)
		for sl := 0; sl < slices; sl++ {
			theta := 2 * math.Pi * float64(sl) / float64(slices)
			n := Vec3{X: sp * math.Cos(theta), Y: cp, Z: sp * math.Sin(theta)}
			m.Vertices = append(m.Vertices, center.add(n.scale(r)))
			m.Normals = append(m.Normals, n)
		}
	}

	// 南极点
	south := len(m.Vertices)
	m.Vertices = append(m.Vertices, center.add(Vec3{Y: -r}))
	m.Normals = append(m.Normals, Vec3{Y: -1})

	ring := func(st, sl int) int {
		return 1 + (st-1)*slices + (sl % slices)
	}

	// 北极扇面
	for sl := 0; sl < slices; sl++ {
		m.Triangles = append(m.Triangles, [3]int{0, ring(1, sl+1), ring(1, sl)})
	}
	// 环与环之间的四边形带
	for st := 1; st < stacks-1; st++ {
		for sl := 0; sl < slices; sl++ {
			a := ring(st, sl)
			b := ring(st, sl+1)
			c := ring(st+1, sl+1)
			d := ring(st+1, sl)
			m.Triangles = append(m.Triangles, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	// 南极扇面
	for sl := 0; sl < slices; sl++ {
		m.Triangles = append(m.Triangles, [3]int{south, ring(stacks-1, sl), ring(stacks-1, sl+1)})
	}

	return m
}
