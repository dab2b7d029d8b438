package models

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/garment/pkg/math3d"
)

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// ApplyTransforms bakes node transforms into vertex positions. When false
	// the geometry stays in object space, which is where decal parameters live.
	ApplyTransforms bool
	// CalculateNormals fills in smooth normals when the source has none.
	CalculateNormals bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
	}
}

// LoadGLB loads a binary GLTF (.glb) file with default options.
func LoadGLB(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// Load loads a GLTF or GLB file and returns a Mesh.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return l.fromDocument(doc, filepath.Base(path), path)
}

// LoadBytes parses a GLB held in memory, e.g. an asset fetched over HTTP.
// External buffer and image URIs are not resolved.
func (l *GLTFLoader) LoadBytes(data []byte, name string) (*Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode glb: %w", err)
	}
	return l.fromDocument(doc, name, "")
}

func (l *GLTFLoader) fromDocument(doc *gltf.Document, name, basePath string) (*Mesh, error) {
	mesh := NewMesh(name)
	mesh.Materials = extractMaterials(doc, basePath)
	mesh.HasUVs = true

	if len(doc.Scenes) > 0 {
		sceneIdx := 0
		if doc.Scene != nil {
			sceneIdx = int(*doc.Scene)
		}
		for _, nodeIdx := range doc.Scenes[sceneIdx].Nodes {
			if err := l.processNode(doc, int(nodeIdx), math3d.Identity(), mesh); err != nil {
				return nil, err
			}
		}
	} else {
		// No scenes defined, process all root nodes
		for i := range doc.Nodes {
			if isChild(doc, i) {
				continue
			}
			if err := l.processNode(doc, i, math3d.Identity(), mesh); err != nil {
				return nil, err
			}
		}
	}

	if len(mesh.Faces) == 0 {
		return nil, fmt.Errorf("%s: no triangle geometry", name)
	}

	hasNormals := false
	for _, v := range mesh.Vertices {
		if v.Normal.Len() > 0.001 {
			hasNormals = true
			break
		}
	}
	if l.CalculateNormals && !hasNormals {
		mesh.CalculateSmoothNormals()
	}

	mesh.CalculateBounds()
	return mesh, nil
}

func isChild(doc *gltf.Document, idx int) bool {
	for _, n := range doc.Nodes {
		for _, child := range n.Children {
			if int(child) == idx {
				return true
			}
		}
	}
	return false
}

// nodeTransform builds a node's local transform from TRS or its matrix.
func nodeTransform(node *gltf.Node) math3d.Mat4 {
	if node.Matrix != [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1} &&
		node.Matrix != [16]float64{} {
		return math3d.Mat4FromSlice(node.Matrix[:])
	}

	local := math3d.Identity()
	if node.Translation != [3]float64{0, 0, 0} {
		local = local.Mul(math3d.Translate(math3d.V3(
			node.Translation[0],
			node.Translation[1],
			node.Translation[2],
		)))
	}
	if node.Rotation != [4]float64{0, 0, 0, 1} && node.Rotation != [4]float64{} {
		local = local.Mul(math3d.QuatToMat4(
			node.Rotation[0],
			node.Rotation[1],
			node.Rotation[2],
			node.Rotation[3],
		))
	}
	if node.Scale != [3]float64{1, 1, 1} && node.Scale != [3]float64{0, 0, 0} {
		local = local.Mul(math3d.Scale(math3d.V3(
			node.Scale[0],
			node.Scale[1],
			node.Scale[2],
		)))
	}
	return local
}

// processNode recursively processes a node and its children, accumulating transforms.
func (l *GLTFLoader) processNode(doc *gltf.Document, nodeIdx int, parent math3d.Mat4, mesh *Mesh) error {
	node := doc.Nodes[nodeIdx]
	world := parent.Mul(nodeTransform(node))

	if node.Mesh != nil {
		transform := math3d.Identity()
		if l.ApplyTransforms {
			transform = world
		}
		if err := l.appendMesh(doc, doc.Meshes[int(*node.Mesh)], mesh, transform); err != nil {
			return fmt.Errorf("mesh %d: %w", *node.Mesh, err)
		}
	}

	for _, childIdx := range node.Children {
		if err := l.processNode(doc, int(childIdx), world, mesh); err != nil {
			return err
		}
	}
	return nil
}

// appendMesh extracts triangle primitives from a GLTF mesh into mesh.
func (l *GLTFLoader) appendMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh, transform math3d.Mat4) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip lines, points and strips
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals [][3]float32
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = modeler.ReadNormal(doc, doc.Accessors[normIdx], nil)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs [][2]float32
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[uvIdx], nil)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		} else {
			mesh.HasUVs = false
		}

		materialIdx := -1
		if prim.Material != nil {
			materialIdx = int(*prim.Material)
		}

		baseVertex := len(mesh.Vertices)
		for i, p := range positions {
			v := MeshVertex{
				Position: transform.MulVec3(math3d.V3(float64(p[0]), float64(p[1]), float64(p[2]))),
			}
			if i < len(normals) {
				n := normals[i]
				v.Normal = transform.MulVec3Dir(math3d.V3(float64(n[0]), float64(n[1]), float64(n[2]))).Normalize()
			}
			if i < len(uvs) {
				v.UV = math3d.V2(float64(uvs[i][0]), float64(uvs[i][1]))
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		if prim.Indices != nil {
			indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
			for i := 0; i+2 < len(indices); i += 3 {
				f := Face{
					V: [3]int{
						baseVertex + int(indices[i]),
						baseVertex + int(indices[i+1]),
						baseVertex + int(indices[i+2]),
					},
					Material: materialIdx,
				}
				if f.V[0] >= len(mesh.Vertices) || f.V[1] >= len(mesh.Vertices) || f.V[2] >= len(mesh.Vertices) {
					return fmt.Errorf("index out of range at triangle %d", i/3)
				}
				mesh.Faces = append(mesh.Faces, f)
			}
		} else {
			// No indices, assume sequential triangles
			for i := 0; i+2 < len(positions); i += 3 {
				mesh.Faces = append(mesh.Faces, Face{
					V:        [3]int{baseVertex + i, baseVertex + i + 1, baseVertex + i + 2},
					Material: materialIdx,
				})
			}
		}
	}

	return nil
}

// extractMaterials extracts all materials from a GLTF document.
func extractMaterials(doc *gltf.Document, basePath string) []Material {
	materials := make([]Material, len(doc.Materials))

	for i, mat := range doc.Materials {
		m := Material{
			Name:        mat.Name,
			BaseColor:   [4]float64{1, 1, 1, 1}, // Default white
			Metallic:    1,
			Roughness:   1,
			DoubleSided: mat.DoubleSided,
		}

		if pbr := mat.PBRMetallicRoughness; pbr != nil {
			if pbr.BaseColorFactor != nil {
				m.BaseColor = [4]float64{
					float64(pbr.BaseColorFactor[0]),
					float64(pbr.BaseColorFactor[1]),
					float64(pbr.BaseColorFactor[2]),
					float64(pbr.BaseColorFactor[3]),
				}
			}
			if pbr.MetallicFactor != nil {
				m.Metallic = float64(*pbr.MetallicFactor)
			}
			if pbr.RoughnessFactor != nil {
				m.Roughness = float64(*pbr.RoughnessFactor)
			}
			if pbr.BaseColorTexture != nil {
				m.BaseMap = textureImage(doc, int(pbr.BaseColorTexture.Index), basePath)
			}
		}

		materials[i] = m
	}

	return materials
}

// textureImage decodes the image behind texture texIdx, embedded or external.
// Returns nil if it cannot be resolved.
func textureImage(doc *gltf.Document, texIdx int, basePath string) image.Image {
	if texIdx >= len(doc.Textures) {
		return nil
	}
	tex := doc.Textures[texIdx]
	if tex.Source == nil || int(*tex.Source) >= len(doc.Images) {
		return nil
	}
	img := doc.Images[*tex.Source]

	var data []byte
	switch {
	case img.BufferView != nil:
		bv := doc.BufferViews[*img.BufferView]
		buf := doc.Buffers[bv.Buffer]
		if buf.Data == nil {
			return nil
		}
		data = buf.Data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]
	case img.URI != "" && basePath != "":
		raw, err := os.ReadFile(filepath.Join(filepath.Dir(basePath), img.URI))
		if err != nil {
			return nil
		}
		data = raw
	default:
		return nil
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	return decoded
}
