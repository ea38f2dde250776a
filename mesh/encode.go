package mesh

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// =============================================================================
// 💾 STL / OBJ 编码
// =============================================================================

// stlHeaderText 填充二进制 STL 固定的 80 字节头部
const stlHeaderText = "jewelry-gateway procedural mesh"

// EncodeBinarySTL 以小端二进制 STL 格式写出网格。
// 面法线按三角形绕序重新计算，STL 无法表达逐顶点法线。
func EncodeBinarySTL(w io.Writer, m *Mesh) error {
	bw := bufio.NewWriter(w)

	var header [80]byte
	copy(header[:], stlHeaderText)
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("write stl header: %w", err)
	}

	if err := binary.Write(bw, binary.LittleEndian, uint32(len(m.Triangles))); err != nil {
		return fmt.Errorf("write stl triangle count: %w", err)
	}

	buf := make([]float32, 12) // 法线 + 三个顶点
	for _, t := range m.Triangles {
		a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		n := b.sub(a).cross(c.sub(a)).normalize()

		buf[0], buf[1], buf[2] = float32(n.X), float32(n.Y), float32(n.Z)
		buf[3], buf[4], buf[5] = float32(a.X), float32(a.Y), float32(a.Z)
		buf[6], buf[7], buf[8] = float32(b.X), float32(b.Y), float32(b.Z)
		buf[9], buf[10], buf[11] = float32(c.X), float32(c.Y), float32(c.Z)

		if err := binary.Write(bw, binary.LittleEndian, buf); err != nil {
			return fmt.Errorf("write stl triangle: %w", err)
		}
		// attribute byte count，恒为零
		if err := binary.Write(bw, binary.LittleEndian, uint16(0)); err != nil {
			return fmt.Errorf("write stl attribute: %w", err)
		}
	}

	return bw.Flush()
}

// EncodeOBJ 以 Wavefront OBJ 格式写出带顶点法线的网格。
// OBJ 索引从 1 开始。
func EncodeOBJ(w io.Writer, m *Mesh) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintln(bw, "# jewelry-gateway procedural mesh"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(bw, "o necklace"); err != nil {
		return err
	}

	for _, v := range m.Vertices {
		if _, err := fmt.Fprintf(bw, "v %.6f %.6f %.6f\n", v.X, v.Y, v.Z); err != nil {
			return err
		}
	}
	for _, n := range m.Normals {
		if _, err := fmt.Fprintf(bw, "vn %.6f %.6f %.6f\n", n.X, n.Y, n.Z); err != nil {
			return err
		}
	}
	for _, t := range m.Triangles {
		if _, err := fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n",
			t[0]+1, t[0]+1, t[1]+1, t[1]+1, t[2]+1, t[2]+1); err != nil {
			return err
		}
	}

	return bw.Flush()
}
