package models

import (
	"bytes"
	"fmt"
	"image/png"
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// BuildDocument packs meshes into a glTF document, one named node per mesh.
// Faces are grouped into one primitive per material. Meshes without faces
// become empty nodes so their names survive a round trip.
func BuildDocument(meshes ...*Mesh) (*gltf.Document, error) {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "garment"

	for _, m := range meshes {
		if m == nil {
			continue
		}
		node := &gltf.Node{Name: m.Name}
		if len(m.Faces) > 0 {
			meshIdx, err := addMesh(doc, m)
			if err != nil {
				return nil, fmt.Errorf("mesh %q: %w", m.Name, err)
			}
			node.Mesh = gltf.Index(meshIdx)
		}
		doc.Nodes = append(doc.Nodes, node)
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}

	return doc, nil
}

// EncodeGLB writes meshes as a binary glTF stream.
func EncodeGLB(w io.Writer, meshes ...*Mesh) error {
	doc, err := BuildDocument(meshes...)
	if err != nil {
		return err
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode glb: %w", err)
	}
	return nil
}

// WriteGLB writes meshes to a .glb file.
func WriteGLB(path string, meshes ...*Mesh) error {
	doc, err := BuildDocument(meshes...)
	if err != nil {
		return err
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("save glb: %w", err)
	}
	return nil
}

func addMesh(doc *gltf.Document, m *Mesh) (int, error) {
	positions := make([][3]float32, len(m.Vertices))
	normals := make([][3]float32, len(m.Vertices))
	uvs := make([][2]float32, len(m.Vertices))
	for i, v := range m.Vertices {
		positions[i] = v.Position.Float32()
		normals[i] = v.Normal.Float32()
		uvs[i] = v.UV.Float32()
	}

	posAcc := modeler.WritePosition(doc, positions)
	normAcc := modeler.WriteNormal(doc, normals)
	uvAcc := modeler.WriteTextureCoord(doc, uvs)

	// Group faces by material, keeping first-seen order stable.
	var order []int
	groups := make(map[int][]uint32)
	for _, f := range m.Faces {
		if _, ok := groups[f.Material]; !ok {
			order = append(order, f.Material)
		}
		groups[f.Material] = append(groups[f.Material],
			uint32(f.V[0]), uint32(f.V[1]), uint32(f.V[2]))
	}

	gm := &gltf.Mesh{Name: m.Name}
	for _, matIdx := range order {
		prim := &gltf.Primitive{
			Indices: gltf.Index(modeler.WriteIndices(doc, groups[matIdx])),
			Mode:    gltf.PrimitiveTriangles,
		}
		prim.Attributes = map[string]int{
			gltf.POSITION:   posAcc,
			gltf.NORMAL:     normAcc,
			gltf.TEXCOORD_0: uvAcc,
		}
		if matIdx >= 0 && matIdx < len(m.Materials) {
			docMat, err := addMaterial(doc, m.Materials[matIdx])
			if err != nil {
				return 0, err
			}
			prim.Material = gltf.Index(docMat)
		}
		gm.Primitives = append(gm.Primitives, prim)
	}

	doc.Meshes = append(doc.Meshes, gm)
	return len(doc.Meshes) - 1, nil
}

func addMaterial(doc *gltf.Document, mat Material) (int, error) {
	pbr := &gltf.PBRMetallicRoughness{
		BaseColorFactor: &mat.BaseColor,
		MetallicFactor:  gltf.Float(mat.Metallic),
		RoughnessFactor: gltf.Float(mat.Roughness),
	}

	if mat.BaseMap != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, mat.BaseMap); err != nil {
			return 0, fmt.Errorf("encode base map: %w", err)
		}
		imgIdx, err := modeler.WriteImage(doc, mat.Name+"_base", "image/png", &buf)
		if err != nil {
			return 0, fmt.Errorf("write base map: %w", err)
		}
		doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(imgIdx)})
		pbr.BaseColorTexture = &gltf.TextureInfo{Index: len(doc.Textures) - 1}
	}

	doc.Materials = append(doc.Materials, &gltf.Material{
		Name:                 mat.Name,
		DoubleSided:          mat.DoubleSided,
		PBRMetallicRoughness: pbr,
	})
	return len(doc.Materials) - 1, nil
}
