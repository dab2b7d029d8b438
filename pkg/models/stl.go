package models

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/taigrr/garment/pkg/math3d"
)

const stlHeaderSize = 84

// STLLoader reads ASCII and binary STL garments. STL carries no texture
// coordinates, so loaded meshes have HasUVs false and the splitter projects
// UVs from the bounding box.
type STLLoader struct {
	// WeldTolerance merges corners closer than this so shared edges keep
	// shared vertices. Zero welds exact matches only.
	WeldTolerance float64
}

// NewSTLLoader returns a loader that welds exact matches.
func NewSTLLoader() *STLLoader {
	return &STLLoader{}
}

// LoadBytes parses STL data in either encoding.
func (l *STLLoader) LoadBytes(data []byte, name string) (*Mesh, error) {
	w := newWelder(name, l.WeldTolerance)
	var err error
	if isBinarySTL(data) {
		err = w.readBinary(data)
	} else {
		err = w.readASCII(data)
	}
	if err != nil {
		return nil, fmt.Errorf("stl %s: %w", name, err)
	}
	if len(w.mesh.Faces) == 0 {
		return nil, fmt.Errorf("stl %s: no facets", name)
	}
	w.mesh.CalculateSmoothNormals()
	w.mesh.CalculateBounds()
	return w.mesh, nil
}

// isBinarySTL reports whether data is binary STL. Some exporters start the
// binary header with "solid", so the declared facet count decides.
func isBinarySTL(data []byte) bool {
	if len(data) < stlHeaderSize {
		return false
	}
	return stlSizeMatches(data) || !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid"))
}

// stlSizeMatches reports whether the declared facet count fits the data length.
func stlSizeMatches(data []byte) bool {
	if len(data) < stlHeaderSize {
		return false
	}
	n := binary.LittleEndian.Uint32(data[80:84])
	return uint64(len(data)) == stlHeaderSize+uint64(n)*50
}

type weldKey [3]int64

type welder struct {
	mesh  *Mesh
	scale float64
	seen  map[weldKey]int
}

func newWelder(name string, tol float64) *welder {
	if tol <= 0 {
		tol = 1e-12
	}
	return &welder{mesh: NewMesh(name), scale: 1 / tol, seen: make(map[weldKey]int)}
}

func (w *welder) vertex(p math3d.Vec3) int {
	k := weldKey{int64(math.Round(p.X * w.scale)), int64(math.Round(p.Y * w.scale)), int64(math.Round(p.Z * w.scale))}
	if i, ok := w.seen[k]; ok {
		return i
	}
	w.mesh.Vertices = append(w.mesh.Vertices, MeshVertex{Position: p})
	w.seen[k] = len(w.mesh.Vertices) - 1
	return len(w.mesh.Vertices) - 1
}

func (w *welder) facet(a, b, c math3d.Vec3) {
	w.mesh.Faces = append(w.mesh.Faces, Face{V: [3]int{w.vertex(a), w.vertex(b), w.vertex(c)}, Material: -1})
}

func (w *welder) readBinary(data []byte) error {
	if len(data) < stlHeaderSize {
		return errors.New("binary data too short")
	}
	n := int(binary.LittleEndian.Uint32(data[80:84]))
	if want := stlHeaderSize + n*50; len(data) < want {
		return fmt.Errorf("truncated: want %d bytes, have %d", want, len(data))
	}
	f32 := func(off int) float64 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data[off:])))
	}
	for i := range n {
		// 12 bytes of facet normal precede the corners; normals are recomputed.
		off := stlHeaderSize + i*50 + 12
		var v [3]math3d.Vec3
		for k := range v {
			o := off + k*12
			v[k] = math3d.V3(f32(o), f32(o+4), f32(o+8))
		}
		w.facet(v[0], v[1], v[2])
	}
	return nil
}

func (w *welder) readASCII(data []byte) error {
	sc := bufio.NewScanner(bytes.NewReader(data))
	var corners []math3d.Vec3
	line := 0
	for sc.Scan() {
		line++
		f := strings.Fields(sc.Text())
		if len(f) == 0 {
			continue
		}
		switch strings.ToLower(f[0]) {
		case "solid":
			if len(f) > 1 && w.mesh.Name == "" {
				w.mesh.Name = f[1]
			}
		case "facet":
			corners = corners[:0]
		case "vertex":
			if len(f) < 4 {
				return fmt.Errorf("line %d: vertex needs x y z", line)
			}
			var xyz [3]float64
			for i := range xyz {
				v, err := strconv.ParseFloat(f[i+1], 64)
				if err != nil {
					return fmt.Errorf("line %d: %w", line, err)
				}
				xyz[i] = v
			}
			corners = append(corners, math3d.V3(xyz[0], xyz[1], xyz[2]))
		case "endfacet":
			if len(corners) != 3 {
				return fmt.Errorf("line %d: facet has %d vertices", line, len(corners))
			}
			w.facet(corners[0], corners[1], corners[2])
		}
	}
	return sc.Err()
}
