package models

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/taigrr/garment/pkg/math3d"
)

// OBJLoader reads Wavefront OBJ garments. Polygons are fan-triangulated.
// Materials and groups are ignored; the garment is treated as one surface.
type OBJLoader struct{}

// NewOBJLoader returns an OBJ loader.
func NewOBJLoader() *OBJLoader {
	return &OBJLoader{}
}

type objCorner struct{ pos, uv, normal int }

// LoadBytes parses OBJ text. The mesh has UVs only when every face corner
// references a texture coordinate.
func (l *OBJLoader) LoadBytes(data []byte, name string) (*Mesh, error) {
	var (
		positions []math3d.Vec3
		uvs       []math3d.Vec2
		normals   []math3d.Vec3
	)
	mesh := NewMesh(name)
	index := make(map[objCorner]int)
	allUV, anyNormal := true, false

	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		f := strings.Fields(sc.Text())
		if len(f) == 0 || strings.HasPrefix(f[0], "#") {
			continue
		}
		switch f[0] {
		case "v", "vn":
			xyz, err := parseFloats(f[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("obj %s line %d: %w", name, line, err)
			}
			if f[0] == "v" {
				positions = append(positions, math3d.V3(xyz[0], xyz[1], xyz[2]))
			} else {
				normals = append(normals, math3d.V3(xyz[0], xyz[1], xyz[2]).Normalize())
			}
		case "vt":
			uv, err := parseFloats(f[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("obj %s line %d: %w", name, line, err)
			}
			uvs = append(uvs, math3d.V2(uv[0], uv[1]))
		case "f":
			if len(f) < 4 {
				return nil, fmt.Errorf("obj %s line %d: face needs 3 corners", name, line)
			}
			idx := make([]int, 0, len(f)-1)
			for _, ref := range f[1:] {
				c, err := parseCorner(ref, len(positions), len(uvs), len(normals))
				if err != nil {
					return nil, fmt.Errorf("obj %s line %d: %w", name, line, err)
				}
				allUV = allUV && c.uv >= 0
				anyNormal = anyNormal || c.normal >= 0
				i, ok := index[c]
				if !ok {
					v := MeshVertex{Position: positions[c.pos]}
					if c.uv >= 0 {
						v.UV = uvs[c.uv]
					}
					if c.normal >= 0 {
						v.Normal = normals[c.normal]
					}
					i = len(mesh.Vertices)
					mesh.Vertices = append(mesh.Vertices, v)
					index[c] = i
				}
				idx = append(idx, i)
			}
			for k := 1; k+1 < len(idx); k++ {
				mesh.Faces = append(mesh.Faces, Face{V: [3]int{idx[0], idx[k], idx[k+1]}, Material: -1})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("obj %s: %w", name, err)
	}
	if len(mesh.Faces) == 0 {
		return nil, fmt.Errorf("obj %s: no faces", name)
	}

	mesh.HasUVs = allUV
	if !anyNormal {
		mesh.CalculateSmoothNormals()
	}
	mesh.CalculateBounds()
	return mesh, nil
}

func parseFloats(fields []string, n int) ([]float64, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("want %d values, have %d", n, len(fields))
	}
	out := make([]float64, n)
	for i := range out {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// parseCorner parses "p", "p/t", "p//n" or "p/t/n" into zero-based indices,
// -1 for absent parts. Negative OBJ indices count back from the end.
func parseCorner(ref string, np, nt, nn int) (objCorner, error) {
	c := objCorner{pos: -1, uv: -1, normal: -1}
	parts := strings.Split(ref, "/")
	counts := [3]int{np, nt, nn}
	dst := [3]*int{&c.pos, &c.uv, &c.normal}
	for i, p := range parts {
		if i > 2 {
			return c, fmt.Errorf("bad corner %q", ref)
		}
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return c, fmt.Errorf("bad corner %q: %w", ref, err)
		}
		if n < 0 {
			n += counts[i]
		} else {
			n--
		}
		if n < 0 || n >= counts[i] {
			return c, fmt.Errorf("corner %q out of range", ref)
		}
		*dst[i] = n
	}
	if c.pos < 0 {
		return c, fmt.Errorf("corner %q has no position", ref)
	}
	return c, nil
}
